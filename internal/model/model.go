package model

import (
	"gorm.io/gorm"

	"terminal-terrace/testmaker/internal/model/answer"
	"terminal-terrace/testmaker/internal/model/task"
	"terminal-terrace/testmaker/internal/model/user"
)

// InitTable 自动迁移表结构
func InitTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&task.Task{},
		&answer.Answer{},
	)
}
