package task

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"terminal-terrace/testmaker/internal/attachment"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
)

// TaskRepository 作业数据访问
type TaskRepository interface {
	Create(ctx context.Context, t *taskModel.Task) error
	GetByID(ctx context.Context, id uint) (*taskModel.Task, error)
	TitleTaken(ctx context.Context, title string, excludeID uint) (bool, error)
	List(ctx context.Context, q ListQuery, now time.Time) ([]taskModel.Task, int64, error)
	Update(ctx context.Context, id uint, changes map[string]any) error
	AppendAttachments(ctx context.Context, id uint, column attachment.Column, items attachmentModel.List) error
	RemoveAttachment(ctx context.Context, id uint, column attachment.Column, attachmentID string) error
	Delete(ctx context.Context, id uint) error
	AnswerAttachments(ctx context.Context, taskID uint) ([]attachmentModel.List, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, t *taskModel.Task) error {
	if t.Files == nil {
		t.Files = attachmentModel.List{}
	}
	if t.Photos == nil {
		t.Photos = attachmentModel.List{}
	}
	return r.db.WithContext(ctx).Omit("Checker").Create(t).Error
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*taskModel.Task, error) {
	var t taskModel.Task
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *taskRepository) TitleTaken(ctx context.Context, title string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&taskModel.Task{}).
		Where("title = ? AND id <> ?", title, excludeID).
		Count(&count).Error
	return count > 0, err
}

// List 按截止时间升序，没有截止时间的排在最后
func (r *taskRepository) List(ctx context.Context, q ListQuery, now time.Time) ([]taskModel.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&taskModel.Task{})
	if q.Specialty != "" {
		query = query.Where("specialty = ?", q.Specialty)
	}
	if q.Course != nil {
		query = query.Where("course = ?", *q.Course)
	}
	if q.LessonType != "" {
		query = query.Where("lesson_type = ?", q.LessonType)
	}
	if name := strings.TrimSpace(q.LessonName); name != "" {
		query = query.Where("lesson_name ILIKE ?", "%"+name+"%")
	}
	if q.CheckerID != nil {
		query = query.Where("checker_id = ?", *q.CheckerID)
	}
	if q.Upcoming {
		query = query.Where("deadline >= ?", now)
	}
	if q.Overdue {
		query = query.Where("deadline < ?", now)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []taskModel.Task
	err := query.Order("deadline ASC NULLS LAST").Order("id ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&tasks).Error
	return tasks, total, err
}

func (r *taskRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&taskModel.Task{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) AppendAttachments(ctx context.Context, id uint, column attachment.Column, items attachmentModel.List) error {
	if len(items) == 0 {
		return nil
	}
	return r.Update(ctx, id, map[string]any{string(column): attachment.AppendExpr(column, items)})
}

func (r *taskRepository) RemoveAttachment(ctx context.Context, id uint, column attachment.Column, attachmentID string) error {
	return r.Update(ctx, id, map[string]any{string(column): attachment.RemoveExpr(column, attachmentID)})
}

// Delete 外键级联删除作业下的提交
func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&taskModel.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AnswerAttachments 作业下所有提交的附件列表
func (r *taskRepository) AnswerAttachments(ctx context.Context, taskID uint) ([]attachmentModel.List, error) {
	var answers []answerModel.Answer
	err := r.db.WithContext(ctx).Select("id", "files", "photos").
		Where("task_id = ?", taskID).
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	lists := make([]attachmentModel.List, 0, 2*len(answers))
	for _, a := range answers {
		lists = append(lists, a.Files, a.Photos)
	}
	return lists, nil
}
