package answer

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"terminal-terrace/testmaker/internal/attachment"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/testutils"
)

// memoryAnswerRepo 内存版 AnswerRepository，(task, student) 唯一性与数据库一致
type memoryAnswerRepo struct {
	mu      sync.Mutex
	nextID  uint
	answers map[uint]answerModel.Answer
	checker map[uint]uint // task -> checker
	// beforeConditional 在条件更新/删除之前执行，用于模拟并发批改
	beforeConditional func()
}

func newMemoryAnswerRepo() *memoryAnswerRepo {
	return &memoryAnswerRepo{answers: make(map[uint]answerModel.Answer), checker: make(map[uint]uint)}
}

func (r *memoryAnswerRepo) Create(ctx context.Context, a *answerModel.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.answers {
		if existing.TaskID == a.TaskID && existing.StudentID == a.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	a.ID = r.nextID
	a.SubmittedAt = time.Now().Add(time.Duration(a.ID) * time.Millisecond)
	r.answers[a.ID] = *a
	return nil
}

func (r *memoryAnswerRepo) GetByID(ctx context.Context, id uint) (*answerModel.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a.Files = append(attachmentModel.List{}, a.Files...)
	a.Photos = append(attachmentModel.List{}, a.Photos...)
	return &a, nil
}

func (r *memoryAnswerRepo) Exists(ctx context.Context, taskID, studentID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.TaskID == taskID && a.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAnswerRepo) List(ctx context.Context, f Filter) ([]answerModel.Answer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []answerModel.Answer
	for _, a := range r.answers {
		switch {
		case f.TaskID != nil && a.TaskID != *f.TaskID,
			f.StudentID != nil && a.StudentID != *f.StudentID,
			f.Status != "" && a.Status != f.Status,
			f.GradeMin != nil && (a.Grade == nil || *a.Grade < *f.GradeMin),
			f.GradeMax != nil && (a.Grade == nil || *a.Grade > *f.GradeMax),
			f.CheckerID != nil && r.checker[a.TaskID] != *f.CheckerID:
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.OrderByGraded && out[i].GradedAt != nil && out[j].GradedAt != nil {
			return out[i].GradedAt.After(*out[j].GradedAt)
		}
		return out[i].ID > out[j].ID
	})
	total := int64(len(out))
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start > len(out) {
			start = len(out)
		}
		end := min(start+f.PageSize, len(out))
		out = out[start:end]
	}
	return out, total, nil
}

func (r *memoryAnswerRepo) CountByTask(ctx context.Context, taskID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.answers {
		if a.TaskID == taskID {
			n++
		}
	}
	return n, nil
}

func (r *memoryAnswerRepo) apply(a *answerModel.Answer, changes map[string]any) {
	for k, v := range changes {
		switch k {
		case "message":
			a.Message = v.(string)
		case "grade":
			g := v.(int)
			a.Grade = &g
		case "teacher_comment":
			c := v.(string)
			a.TeacherComment = &c
		case "status":
			a.Status = v.(answerModel.Status)
		case "graded_at":
			t := v.(time.Time)
			a.GradedAt = &t
		case "updated_at":
			a.UpdatedAt = time.Now()
		default:
			panic("memoryAnswerRepo: unexpected column " + k)
		}
	}
}

func (r *memoryAnswerRepo) Update(ctx context.Context, id uint, changes map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.apply(&a, changes)
	r.answers[id] = a
	return nil
}

func (r *memoryAnswerRepo) AppendAttachments(ctx context.Context, id uint, column attachment.Column, items attachmentModel.List) error {
	if len(items) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if column == attachment.ColumnPhotos {
		a.Photos = testutils.ApplyAttachments(a.Photos, items, "")
	} else {
		a.Files = testutils.ApplyAttachments(a.Files, items, "")
	}
	r.answers[id] = a
	return nil
}

func (r *memoryAnswerRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.answers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.answers, id)
	return nil
}

func (r *memoryAnswerRepo) UpdateSubmitted(ctx context.Context, id uint, changes map[string]any) (bool, error) {
	if r.beforeConditional != nil {
		r.beforeConditional()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	if !ok || a.Status != answerModel.StatusSubmitted {
		return false, nil
	}
	r.apply(&a, changes)
	r.answers[id] = a
	return true, nil
}

func (r *memoryAnswerRepo) DeleteSubmitted(ctx context.Context, id uint) (bool, error) {
	if r.beforeConditional != nil {
		r.beforeConditional()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	if !ok || a.Status != answerModel.StatusSubmitted {
		return false, nil
	}
	delete(r.answers, id)
	return true, nil
}

// memoryTasks 满足 TaskLookup
type memoryTasks map[uint]*taskModel.Task

func (m memoryTasks) GetByID(ctx context.Context, id uint) (*taskModel.Task, error) {
	t, ok := m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

type memoryUsers map[uint]*userModel.User

func (m memoryUsers) GetByID(ctx context.Context, id uint) (*userModel.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}
