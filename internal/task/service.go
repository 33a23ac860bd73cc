package task

import (
	"context"
	"log/slog"
	"time"

	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/internal/database"
	"terminal-terrace/testmaker/internal/lock"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/response"
	"terminal-terrace/testmaker/packages/storage"
)

type TaskService struct {
	repo       TaskRepository
	files      *attachment.Manager
	locker     lock.Locker
	presignTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewTaskService(repo TaskRepository, files *attachment.Manager, locker lock.Locker, presignTTL time.Duration, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &TaskService{
		repo:       repo,
		files:      files,
		locker:     locker,
		presignTTL: presignTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func dbErr(err error) error {
	return database.TranslateError(err, "作业不存在", "作业标题已存在")
}

func forbidden(msg string) error {
	return response.NewBusinessError(
		response.WithErrorCode(response.Forbidden),
		response.WithErrorMessage(msg),
	)
}

func titleConflict() error {
	return response.NewBusinessError(
		response.WithErrorCode(response.Conflict),
		response.WithErrorMessage("作业标题已存在"),
	)
}

// CanManage 作业的 checker 或管理员
func CanManage(t *taskModel.Task, actor *userModel.User) bool {
	return actor.IsAdmin() || t.CheckerID == actor.ID
}

// GetTask 任何已登录用户可见
func (s *TaskService) GetTask(ctx context.Context, id uint) (*taskModel.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return t, nil
}

// ListTasks 按条件分页
func (s *TaskService) ListTasks(ctx context.Context, q ListQuery) (*ListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	tasks, total, err := s.repo.List(ctx, q, s.now())
	if err != nil {
		return nil, dbErr(err)
	}
	if tasks == nil {
		tasks = []taskModel.Task{}
	}
	return &ListResponse{Items: tasks, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// CreateTask 先插入行拿到 id，再依次上传文件和照片并写回列表。
// 照片校验失败时行和已保存的文件保留，本批照片一张都不上传。
func (s *TaskService) CreateTask(ctx context.Context, req CreateTaskRequest, creator *userModel.User, files, photos []attachment.Upload) (*taskModel.Task, error) {
	if err := s.files.ValidateFiles(files); err != nil {
		return nil, err
	}

	t := &taskModel.Task{
		Title:       req.Title,
		Description: req.Description,
		LessonName:  req.LessonName,
		LessonType:  req.LessonType,
		Specialty:   req.Specialty,
		Course:      req.Course,
		CheckerID:   creator.ID,
		Files:       attachmentModel.List{},
		Photos:      attachmentModel.List{},
	}
	if req.Deadline != nil {
		deadline := req.Deadline.UTC()
		t.Deadline = &deadline
	}

	err := lock.WithLock(ctx, s.locker, lock.TaskTitleKey(req.Title), func() error {
		taken, err := s.repo.TitleTaken(ctx, req.Title, 0)
		if err != nil {
			return dbErr(err)
		}
		if taken {
			return titleConflict()
		}
		return dbErr(s.repo.Create(ctx, t))
	})
	if err != nil {
		return nil, err
	}

	if err := s.attach(ctx, t.ID, attachment.ColumnFiles, files); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, t.ID, attachment.ColumnPhotos, photos); err != nil {
		return nil, err
	}

	s.logger.Info("作业已创建", "task_id", t.ID, "checker_id", creator.ID, "files", len(files), "photos", len(photos))
	return s.GetTask(ctx, t.ID)
}

// attach 上传一批附件并追加到列表；写库失败时回收本批对象
func (s *TaskService) attach(ctx context.Context, id uint, column attachment.Column, uploads []attachment.Upload) error {
	if len(uploads) == 0 {
		return nil
	}

	var (
		list attachmentModel.List
		err  error
	)
	if column == attachment.ColumnPhotos {
		list, err = s.files.UploadPhotos(ctx, storage.KindTask, id, uploads)
	} else {
		list, err = s.files.UploadFiles(ctx, storage.KindTask, id, uploads)
	}
	if err != nil {
		return err
	}

	if err := s.repo.AppendAttachments(ctx, id, column, list); err != nil {
		report := s.files.DeleteAll(context.WithoutCancel(ctx), list)
		s.logger.Warn("附件列表写入失败，已回收本批对象", "task_id", id, "column", column, "failed", report.Failed)
		return dbErr(err)
	}
	return nil
}

// UpdateTask 只应用非 nil 字段，新附件追加到原列表之后
func (s *TaskService) UpdateTask(ctx context.Context, id uint, patch TaskPatch, actor *userModel.User, files, photos []attachment.Upload) (*taskModel.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManage(t, actor) {
		return nil, forbidden("只有作业创建者或管理员可以修改作业")
	}
	if err := s.files.ValidateFiles(files); err != nil {
		return nil, err
	}
	if err := s.files.ValidatePhotos(photos); err != nil {
		return nil, err
	}

	changes := patch.Changes()
	if patch.Title != nil && *patch.Title != t.Title {
		err = lock.WithLock(ctx, s.locker, lock.TaskTitleKey(*patch.Title), func() error {
			taken, err := s.repo.TitleTaken(ctx, *patch.Title, id)
			if err != nil {
				return dbErr(err)
			}
			if taken {
				return titleConflict()
			}
			return dbErr(s.repo.Update(ctx, id, changes))
		})
	} else {
		err = dbErr(s.repo.Update(ctx, id, changes))
	}
	if err != nil {
		return nil, err
	}

	if err := s.attach(ctx, id, attachment.ColumnFiles, files); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, id, attachment.ColumnPhotos, photos); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask 先收集作业和其下提交的附件，删除行后尽力清理对象
func (s *TaskService) DeleteTask(ctx context.Context, id uint, actor *userModel.User) (attachment.CleanupReport, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return attachment.CleanupReport{}, err
	}
	if !CanManage(t, actor) {
		return attachment.CleanupReport{}, forbidden("只有作业创建者或管理员可以删除作业")
	}

	answerLists, err := s.repo.AnswerAttachments(ctx, id)
	if err != nil {
		return attachment.CleanupReport{}, dbErr(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return attachment.CleanupReport{}, dbErr(err)
	}

	lists := append([]attachmentModel.List{t.Files, t.Photos}, answerLists...)
	report := s.files.DeleteAll(context.WithoutCancel(ctx), lists...)
	if !report.OK() {
		s.logger.Warn("删除作业后部分附件未能清理", "task_id", id, "failed", report.Failed)
	}
	return report, nil
}

// DeleteTaskFile key 为附件 id 或文件名
func (s *TaskService) DeleteTaskFile(ctx context.Context, id uint, key string, actor *userModel.User) (*taskModel.Task, error) {
	return s.deleteAttachment(ctx, id, attachment.ColumnFiles, key, actor)
}

func (s *TaskService) DeleteTaskPhoto(ctx context.Context, id uint, key string, actor *userModel.User) (*taskModel.Task, error) {
	return s.deleteAttachment(ctx, id, attachment.ColumnPhotos, key, actor)
}

// deleteAttachment 对象删除失败时列表保持不变
func (s *TaskService) deleteAttachment(ctx context.Context, id uint, column attachment.Column, key string, actor *userModel.User) (*taskModel.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManage(t, actor) {
		return nil, forbidden("只有作业创建者或管理员可以删除附件")
	}

	list := t.Files
	if column == attachment.ColumnPhotos {
		list = t.Photos
	}
	target, ok := attachment.Find(list, key)
	if !ok {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage("附件不存在"),
		)
	}

	if err := s.files.Delete(ctx, target); err != nil {
		return nil, err
	}
	if target.ID == "" {
		// 没有 id 的旧数据只能整列写回
		_, rest, _ := attachment.Remove(list, key)
		err = s.repo.Update(ctx, id, map[string]any{string(column): rest})
	} else {
		err = s.repo.RemoveAttachment(ctx, id, column, target.ID)
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return s.GetTask(ctx, id)
}

// PresignAttachment 生成作业附件的临时下载地址
func (s *TaskService) PresignAttachment(ctx context.Context, id uint, key string) (*PresignResponse, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	target, ok := attachment.Find(t.Files, key)
	if !ok {
		target, ok = attachment.Find(t.Photos, key)
	}
	if !ok {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage("附件不存在"),
		)
	}

	url, err := s.files.Presign(ctx, target, s.presignTTL)
	if err != nil {
		return nil, err
	}
	return &PresignResponse{URL: url, ExpiresIn: int64(s.presignTTL.Seconds())}, nil
}
