package answer

import (
	"time"

	"terminal-terrace/testmaker/internal/model/attachment"
	"terminal-terrace/testmaker/internal/model/task"
	"terminal-terrace/testmaker/internal/model/user"
)

type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusGraded    Status = "GRADED"
	StatusReturned  Status = "RETURNED"
)

// Answer 提交表，(task_id, student_id) 唯一
type Answer struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	TaskID         uint            `gorm:"not null;uniqueIndex:idx_answers_task_student" json:"task_id"`
	StudentID      uint            `gorm:"not null;uniqueIndex:idx_answers_task_student;index" json:"student_id"`
	Message        string          `gorm:"type:text" json:"message"`
	Files          attachment.List `gorm:"type:jsonb;not null" json:"files"`
	Photos         attachment.List `gorm:"type:jsonb;not null" json:"photos"`
	Status         Status          `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	Grade          *int            `json:"grade"`
	TeacherComment *string         `gorm:"type:text" json:"teacher_comment"`
	SubmittedAt    time.Time       `gorm:"autoCreateTime" json:"add_at"`
	GradedAt       *time.Time      `json:"graded_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Task    *task.Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Student *user.User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Answer) TableName() string {
	return "answers"
}

// Editable 仅 SUBMITTED 状态允许学生修改或删除
func (a *Answer) Editable() bool {
	return a.Status == StatusSubmitted
}
