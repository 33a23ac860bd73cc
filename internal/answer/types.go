package answer

import (
	"terminal-terrace/testmaker/internal/attachment"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
)

// CreateAnswerRequest 提交作业，附件以 multipart 的 files / photos 字段上传
type CreateAnswerRequest struct {
	TaskID  uint   `form:"task_id" json:"task_id" binding:"required"`
	Message string `form:"message" json:"message"`
}

// UpdateAnswerRequest 学生修改提交，新附件追加
type UpdateAnswerRequest struct {
	Message *string `form:"message" json:"message"`
}

// Changes 列名到新值
func (r UpdateAnswerRequest) Changes() map[string]any {
	changes := make(map[string]any)
	if r.Message != nil {
		changes["message"] = *r.Message
	}
	return changes
}

// GradeRequest 批改，status 缺省为 GRADED
type GradeRequest struct {
	Grade          *int               `json:"grade" binding:"required"`
	TeacherComment *string            `json:"teacher_comment"`
	Status         answerModel.Status `json:"status"`
}

// Filter 提交筛选，条件之间为 AND
type Filter struct {
	TaskID    *uint              `form:"task_id"`
	StudentID *uint              `form:"student_id"`
	Status    answerModel.Status `form:"status" binding:"omitempty,oneof=SUBMITTED GRADED RETURNED"`
	GradeMin  *int               `form:"grade_min"`
	GradeMax  *int               `form:"grade_max"`
	Page      int                `form:"page" binding:"omitempty,min=1"`
	PageSize  int                `form:"page_size" binding:"omitempty,min=1,max=100"`

	// 非管理员只能看到自己批改的作业下的提交
	CheckerID *uint `form:"-"`
	// 按批改时间倒序，默认按提交时间倒序
	OrderByGraded bool `form:"-"`
}

type ListResponse struct {
	Items    []answerModel.Answer `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// CountResponse 作业的提交数
type CountResponse struct {
	TaskID uint  `json:"task_id"`
	Count  int64 `json:"count"`
}

// DeleteResponse 删除提交后的对象清理结果
type DeleteResponse struct {
	ID      uint                     `json:"id"`
	Cleanup attachment.CleanupReport `json:"cleanup"`
}
