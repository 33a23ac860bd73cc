package task

import (
	"time"

	"terminal-terrace/testmaker/internal/model/attachment"
	"terminal-terrace/testmaker/internal/model/user"
)

type LessonType string

const (
	LessonLecture  LessonType = "LECTURE"
	LessonPractice LessonType = "PRACTICE"
	LessonLab      LessonType = "LAB"
)

// Task 作业表
type Task struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	LessonName  string          `gorm:"type:varchar(255);index" json:"lesson_name"`
	LessonType  LessonType      `gorm:"type:varchar(20);not null" json:"lesson_type"`
	Specialty   string          `gorm:"type:varchar(255);index:idx_tasks_specialty_course" json:"specialty"`
	Course      int             `gorm:"not null;index:idx_tasks_specialty_course" json:"course"`
	Deadline    *time.Time      `gorm:"index" json:"deadline"`
	CheckerID   uint            `gorm:"not null;index" json:"checker"`
	Files       attachment.List `gorm:"type:jsonb;not null" json:"files"`
	Photos      attachment.List `gorm:"type:jsonb;not null" json:"photos"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// 删除用户时级联删除其作业
	Checker *user.User `gorm:"foreignKey:CheckerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}
