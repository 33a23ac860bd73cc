package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"terminal-terrace/testmaker/internal/attachment"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	"terminal-terrace/testmaker/internal/testutils"
)

// memoryTaskRepo 内存版 TaskRepository，标题唯一性与数据库一致
type memoryTaskRepo struct {
	mu          sync.Mutex
	nextID      uint
	tasks       map[uint]taskModel.Task
	answerFiles map[uint][]attachmentModel.List
	updates     int
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{tasks: make(map[uint]taskModel.Task), answerFiles: make(map[uint][]attachmentModel.List)}
}

func (r *memoryTaskRepo) Create(ctx context.Context, t *taskModel.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tasks {
		if existing.Title == t.Title {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	t.ID = r.nextID
	r.tasks[t.ID] = *t
	return nil
}

func (r *memoryTaskRepo) GetByID(ctx context.Context, id uint) (*taskModel.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t.Files = append(attachmentModel.List{}, t.Files...)
	t.Photos = append(attachmentModel.List{}, t.Photos...)
	return &t, nil
}

func (r *memoryTaskRepo) TitleTaken(ctx context.Context, title string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.Title == title && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryTaskRepo) List(ctx context.Context, q ListQuery, now time.Time) ([]taskModel.Task, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []taskModel.Task
	for _, t := range r.tasks {
		if q.CheckerID != nil && t.CheckerID != *q.CheckerID {
			continue
		}
		if q.Course != nil && t.Course != *q.Course {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryTaskRepo) Update(ctx context.Context, id uint, changes map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range changes {
		switch k {
		case "title":
			for _, other := range r.tasks {
				if other.ID != id && other.Title == v.(string) {
					return gorm.ErrDuplicatedKey
				}
			}
			t.Title = v.(string)
		case "description":
			t.Description = v.(string)
		case "lesson_name":
			t.LessonName = v.(string)
		case "lesson_type":
			t.LessonType = v.(taskModel.LessonType)
		case "specialty":
			t.Specialty = v.(string)
		case "course":
			t.Course = v.(int)
		case "deadline":
			d := v.(time.Time)
			t.Deadline = &d
		case "files":
			t.Files = v.(attachmentModel.List)
		case "photos":
			t.Photos = v.(attachmentModel.List)
		default:
			panic("memoryTaskRepo: unexpected column " + k)
		}
	}
	r.updates++
	r.tasks[id] = t
	return nil
}

func (r *memoryTaskRepo) modify(id uint, column attachment.Column, fn func(attachmentModel.List) attachmentModel.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if column == attachment.ColumnPhotos {
		t.Photos = fn(t.Photos)
	} else {
		t.Files = fn(t.Files)
	}
	r.updates++
	r.tasks[id] = t
	return nil
}

func (r *memoryTaskRepo) AppendAttachments(ctx context.Context, id uint, column attachment.Column, items attachmentModel.List) error {
	if len(items) == 0 {
		return nil
	}
	return r.modify(id, column, func(l attachmentModel.List) attachmentModel.List {
		return testutils.ApplyAttachments(l, items, "")
	})
}

func (r *memoryTaskRepo) RemoveAttachment(ctx context.Context, id uint, column attachment.Column, attachmentID string) error {
	return r.modify(id, column, func(l attachmentModel.List) attachmentModel.List {
		return testutils.ApplyAttachments(l, nil, attachmentID)
	})
}

func (r *memoryTaskRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.tasks, id)
	delete(r.answerFiles, id)
	return nil
}

func (r *memoryTaskRepo) AnswerAttachments(ctx context.Context, taskID uint) ([]attachmentModel.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answerFiles[taskID], nil
}
