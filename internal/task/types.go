package task

import (
	"time"

	"terminal-terrace/testmaker/internal/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
)

// CreateTaskRequest 创建作业，附件以 multipart 的 files / photos 字段上传
type CreateTaskRequest struct {
	Title       string               `form:"title" json:"title" binding:"required,max=255"`
	Description string               `form:"description" json:"description"`
	LessonName  string               `form:"lesson_name" json:"lesson_name" binding:"max=255"`
	LessonType  taskModel.LessonType `form:"lesson_type" json:"lesson_type" binding:"required,oneof=LECTURE PRACTICE LAB"`
	Specialty   string               `form:"specialty" json:"specialty" binding:"max=255"`
	Course      int                  `form:"course" json:"course" binding:"required,gte=1"`
	Deadline    *time.Time           `form:"deadline" json:"deadline" time_format:"2006-01-02T15:04:05Z07:00"`
}

// TaskPatch 只修改非 nil 的字段
type TaskPatch struct {
	Title       *string               `form:"title" json:"title" binding:"omitempty,min=1,max=255"`
	Description *string               `form:"description" json:"description"`
	LessonName  *string               `form:"lesson_name" json:"lesson_name" binding:"omitempty,max=255"`
	LessonType  *taskModel.LessonType `form:"lesson_type" json:"lesson_type" binding:"omitempty,oneof=LECTURE PRACTICE LAB"`
	Specialty   *string               `form:"specialty" json:"specialty" binding:"omitempty,max=255"`
	Course      *int                  `form:"course" json:"course" binding:"omitempty,gte=1"`
	Deadline    *time.Time            `form:"deadline" json:"deadline" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Changes 列名到新值
func (p TaskPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.LessonName != nil {
		changes["lesson_name"] = *p.LessonName
	}
	if p.LessonType != nil {
		changes["lesson_type"] = *p.LessonType
	}
	if p.Specialty != nil {
		changes["specialty"] = *p.Specialty
	}
	if p.Course != nil {
		changes["course"] = *p.Course
	}
	if p.Deadline != nil {
		changes["deadline"] = p.Deadline.UTC()
	}
	return changes
}

// ListQuery 作业筛选，条件之间为 AND
type ListQuery struct {
	Specialty  string               `form:"specialty"`
	Course     *int                 `form:"course"`
	LessonType taskModel.LessonType `form:"lesson_type" binding:"omitempty,oneof=LECTURE PRACTICE LAB"`
	LessonName string               `form:"lesson_name"`
	CheckerID  *uint                `form:"checker"`
	Upcoming   bool                 `form:"upcoming"`
	Overdue    bool                 `form:"overdue"`
	Page       int                  `form:"page" binding:"omitempty,min=1"`
	PageSize   int                  `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ListResponse struct {
	Items    []taskModel.Task `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// DeleteResponse 删除作业后的对象清理结果
type DeleteResponse struct {
	ID      uint                     `json:"id"`
	Cleanup attachment.CleanupReport `json:"cleanup"`
}

// PresignResponse 附件临时地址
type PresignResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}
