package answer

import (
	"context"

	"gorm.io/gorm"

	"terminal-terrace/testmaker/internal/attachment"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
)

// AnswerRepository 提交数据访问
type AnswerRepository interface {
	Create(ctx context.Context, a *answerModel.Answer) error
	GetByID(ctx context.Context, id uint) (*answerModel.Answer, error)
	Exists(ctx context.Context, taskID, studentID uint) (bool, error)
	List(ctx context.Context, f Filter) ([]answerModel.Answer, int64, error)
	CountByTask(ctx context.Context, taskID uint) (int64, error)
	Update(ctx context.Context, id uint, changes map[string]any) error
	AppendAttachments(ctx context.Context, id uint, column attachment.Column, items attachmentModel.List) error
	Delete(ctx context.Context, id uint) error
	UpdateSubmitted(ctx context.Context, id uint, changes map[string]any) (bool, error)
	DeleteSubmitted(ctx context.Context, id uint) (bool, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, a *answerModel.Answer) error {
	if a.Files == nil {
		a.Files = attachmentModel.List{}
	}
	if a.Photos == nil {
		a.Photos = attachmentModel.List{}
	}
	return r.db.WithContext(ctx).Omit("Task", "Student").Create(a).Error
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (*answerModel.Answer, error) {
	var a answerModel.Answer
	err := r.db.WithContext(ctx).First(&a, id).Error
	return &a, err
}

func (r *answerRepository) Exists(ctx context.Context, taskID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&answerModel.Answer{}).
		Where("task_id = ? AND student_id = ?", taskID, studentID).
		Count(&count).Error
	return count > 0, err
}

// List PageSize 为 0 时不分页
func (r *answerRepository) List(ctx context.Context, f Filter) ([]answerModel.Answer, int64, error) {
	query := r.db.WithContext(ctx).Model(&answerModel.Answer{})
	if f.TaskID != nil {
		query = query.Where("task_id = ?", *f.TaskID)
	}
	if f.StudentID != nil {
		query = query.Where("student_id = ?", *f.StudentID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.GradeMin != nil {
		query = query.Where("grade >= ?", *f.GradeMin)
	}
	if f.GradeMax != nil {
		query = query.Where("grade <= ?", *f.GradeMax)
	}
	if f.CheckerID != nil {
		query = query.Where("task_id IN (?)",
			r.db.Model(&taskModel.Task{}).Select("id").Where("checker_id = ?", *f.CheckerID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.OrderByGraded {
		query = query.Order("graded_at DESC NULLS LAST")
	} else {
		query = query.Order("submitted_at DESC")
	}
	query = query.Order("id DESC")
	if f.PageSize > 0 {
		query = query.Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize)
	}

	var answers []answerModel.Answer
	err := query.Find(&answers).Error
	return answers, total, err
}

func (r *answerRepository) CountByTask(ctx context.Context, taskID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&answerModel.Answer{}).Where("task_id = ?", taskID).Count(&count).Error
	return count, err
}

func (r *answerRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&answerModel.Answer{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *answerRepository) AppendAttachments(ctx context.Context, id uint, column attachment.Column, items attachmentModel.List) error {
	if len(items) == 0 {
		return nil
	}
	return r.Update(ctx, id, map[string]any{string(column): attachment.AppendExpr(column, items)})
}

func (r *answerRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&answerModel.Answer{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSubmitted 仅当仍为 SUBMITTED 时更新，返回是否命中
func (r *answerRepository) UpdateSubmitted(ctx context.Context, id uint, changes map[string]any) (bool, error) {
	if len(changes) == 0 {
		changes = map[string]any{"updated_at": gorm.Expr("NOW()")}
	}
	result := r.db.WithContext(ctx).Model(&answerModel.Answer{}).
		Where("id = ? AND status = ?", id, answerModel.StatusSubmitted).
		Updates(changes)
	return result.RowsAffected > 0, result.Error
}

// DeleteSubmitted 仅当仍为 SUBMITTED 时删除，返回是否命中
func (r *answerRepository) DeleteSubmitted(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("status = ?", answerModel.StatusSubmitted).
		Delete(&answerModel.Answer{}, id)
	return result.RowsAffected > 0, result.Error
}
