// Package answer 学生提交及其批改流程：SUBMITTED 之后只能由 checker 批改为 GRADED 或 RETURNED。
package answer

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/internal/database"
	"terminal-terrace/testmaker/internal/lock"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/email"
	"terminal-terrace/testmaker/packages/response"
	"terminal-terrace/testmaker/packages/storage"
)

// TaskLookup 读取提交所属的作业
type TaskLookup interface {
	GetByID(ctx context.Context, id uint) (*taskModel.Task, error)
}

// UserLookup 读取学生信息用于通知
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*userModel.User, error)
}

// GradeNotifier 批改后通知学生
type GradeNotifier interface {
	SendGradeNotification(to string, data email.GradeNotificationData) error
}

type AnswerService struct {
	repo     AnswerRepository
	tasks    TaskLookup
	users    UserLookup
	files    *attachment.Manager
	locker   lock.Locker
	notifier GradeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewAnswerService(repo AnswerRepository, tasks TaskLookup, users UserLookup, files *attachment.Manager, locker lock.Locker, logger *slog.Logger) *AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		repo:   repo,
		tasks:  tasks,
		users:  users,
		files:  files,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// SetNotifier 配置了邮件时才调用
func (s *AnswerService) SetNotifier(n GradeNotifier) {
	s.notifier = n
}

func dbErr(err error) error {
	return database.TranslateError(err, "提交不存在", "已经提交过该作业")
}

func forbidden(msg string) error {
	return response.NewBusinessError(
		response.WithErrorCode(response.Forbidden),
		response.WithErrorMessage(msg),
	)
}

func validationFailed(msg string) error {
	return response.NewBusinessError(
		response.WithErrorCode(response.ValidationFailed),
		response.WithErrorMessage(msg),
	)
}

func gradedAlready() error {
	return validationFailed("提交已批改，不能再修改或删除")
}

func (s *AnswerService) getTask(ctx context.Context, id uint) (*taskModel.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err, "作业不存在", "")
	}
	return t, nil
}

func isChecker(t *taskModel.Task, actor *userModel.User) bool {
	return actor.IsAdmin() || t.CheckerID == actor.ID
}

func isOwner(a *answerModel.Answer, actor *userModel.User) bool {
	return actor.IsAdmin() || a.StudentID == actor.ID
}

// CreateAnswer 每个 (作业, 学生) 只能有一份提交
func (s *AnswerService) CreateAnswer(ctx context.Context, req CreateAnswerRequest, actor *userModel.User, files, photos []attachment.Upload) (*answerModel.Answer, error) {
	if _, err := s.getTask(ctx, req.TaskID); err != nil {
		return nil, err
	}
	if err := s.files.ValidateFiles(files); err != nil {
		return nil, err
	}

	a := &answerModel.Answer{
		TaskID:    req.TaskID,
		StudentID: actor.ID,
		Message:   req.Message,
		Status:    answerModel.StatusSubmitted,
		Files:     attachmentModel.List{},
		Photos:    attachmentModel.List{},
	}
	err := lock.WithLock(ctx, s.locker, lock.AnswerKey(req.TaskID, actor.ID), func() error {
		exists, err := s.repo.Exists(ctx, req.TaskID, actor.ID)
		if err != nil {
			return dbErr(err)
		}
		if exists {
			return response.NewBusinessError(
				response.WithErrorCode(response.Conflict),
				response.WithErrorMessage("已经提交过该作业"),
			)
		}
		return dbErr(s.repo.Create(ctx, a))
	})
	if err != nil {
		return nil, err
	}

	if err := s.attach(ctx, a.ID, attachment.ColumnFiles, files); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, a.ID, attachment.ColumnPhotos, photos); err != nil {
		return nil, err
	}

	s.logger.Info("作业已提交", "answer_id", a.ID, "task_id", a.TaskID, "student_id", actor.ID)
	return s.get(ctx, a.ID)
}

// attach 上传一批附件并追加；写库失败时回收本批对象
func (s *AnswerService) attach(ctx context.Context, id uint, column attachment.Column, uploads []attachment.Upload) error {
	if len(uploads) == 0 {
		return nil
	}

	var (
		list attachmentModel.List
		err  error
	)
	if column == attachment.ColumnPhotos {
		list, err = s.files.UploadPhotos(ctx, storage.KindAnswer, id, uploads)
	} else {
		list, err = s.files.UploadFiles(ctx, storage.KindAnswer, id, uploads)
	}
	if err != nil {
		return err
	}

	if err := s.repo.AppendAttachments(ctx, id, column, list); err != nil {
		report := s.files.DeleteAll(context.WithoutCancel(ctx), list)
		s.logger.Warn("附件列表写入失败，已回收本批对象", "answer_id", id, "column", column, "failed", report.Failed)
		return dbErr(err)
	}
	return nil
}

func (s *AnswerService) get(ctx context.Context, id uint) (*answerModel.Answer, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return a, nil
}

// UpdateAnswer 仅学生本人或管理员，且仍为 SUBMITTED
func (s *AnswerService) UpdateAnswer(ctx context.Context, id uint, req UpdateAnswerRequest, actor *userModel.User, files, photos []attachment.Upload) (*answerModel.Answer, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(a, actor) {
		return nil, forbidden("只能修改自己的提交")
	}
	if !a.Editable() {
		return nil, gradedAlready()
	}
	if err := s.files.ValidateFiles(files); err != nil {
		return nil, err
	}
	if err := s.files.ValidatePhotos(photos); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateSubmitted(ctx, id, req.Changes())
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return nil, gradedAlready()
	}

	if err := s.attach(ctx, id, attachment.ColumnFiles, files); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, id, attachment.ColumnPhotos, photos); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// GradeAnswer 作业 checker 或管理员批改，允许重复批改
func (s *AnswerService) GradeAnswer(ctx context.Context, id uint, req GradeRequest, actor *userModel.User) (*answerModel.Answer, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.getTask(ctx, a.TaskID)
	if err != nil {
		return nil, err
	}
	if !isChecker(t, actor) {
		return nil, forbidden("只有作业的批改人或管理员可以批改")
	}

	if req.Grade == nil || *req.Grade < 0 || *req.Grade > 100 {
		return nil, validationFailed("分数必须在 0 到 100 之间")
	}
	status := req.Status
	if status == "" {
		status = answerModel.StatusGraded
	}
	if status != answerModel.StatusGraded && status != answerModel.StatusReturned {
		return nil, validationFailed("批改状态只能是 GRADED 或 RETURNED")
	}

	changes := map[string]any{
		"grade":     *req.Grade,
		"status":    status,
		"graded_at": s.now().UTC(),
	}
	if req.TeacherComment != nil {
		changes["teacher_comment"] = *req.TeacherComment
	}
	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, dbErr(err)
	}

	graded, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("提交已批改", "answer_id", id, "grader_id", actor.ID, "grade", *req.Grade, "status", status)
	s.notify(ctx, graded, t)
	return graded, nil
}

// notify 尽力而为，失败只记日志
func (s *AnswerService) notify(ctx context.Context, a *answerModel.Answer, t *taskModel.Task) {
	if s.notifier == nil || s.users == nil {
		return
	}
	student, err := s.users.GetByID(ctx, a.StudentID)
	if err != nil {
		s.logger.Warn("批改通知：读取学生失败", "answer_id", a.ID, "error", err)
		return
	}

	data := email.GradeNotificationData{
		StudentName: student.DisplayName(),
		TaskTitle:   t.Title,
		Status:      string(a.Status),
	}
	if a.Grade != nil {
		data.Grade = strconv.Itoa(*a.Grade)
	}
	if a.TeacherComment != nil {
		data.Comment = *a.TeacherComment
	}
	if err := s.notifier.SendGradeNotification(student.Email, data); err != nil {
		s.logger.Warn("批改通知发送失败", "answer_id", a.ID, "to", student.Email, "error", err)
	}
}

// DeleteAnswer 仅学生本人或管理员，且仍为 SUBMITTED；删除行后尽力清理对象
func (s *AnswerService) DeleteAnswer(ctx context.Context, id uint, actor *userModel.User) (attachment.CleanupReport, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return attachment.CleanupReport{}, err
	}
	if !isOwner(a, actor) {
		return attachment.CleanupReport{}, forbidden("只能删除自己的提交")
	}
	if !a.Editable() {
		return attachment.CleanupReport{}, gradedAlready()
	}

	ok, err := s.repo.DeleteSubmitted(ctx, id)
	if err != nil {
		return attachment.CleanupReport{}, dbErr(err)
	}
	if !ok {
		return attachment.CleanupReport{}, gradedAlready()
	}

	report := s.files.DeleteAll(context.WithoutCancel(ctx), a.Files, a.Photos)
	if !report.OK() {
		s.logger.Warn("删除提交后部分附件未能清理", "answer_id", id, "failed", report.Failed)
	}
	return report, nil
}

// GetByID 学生本人、作业 checker 或管理员可见
func (s *AnswerService) GetByID(ctx context.Context, id uint, actor *userModel.User) (*answerModel.Answer, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if isOwner(a, actor) {
		return a, nil
	}
	t, err := s.getTask(ctx, a.TaskID)
	if err != nil {
		return nil, err
	}
	if !isChecker(t, actor) {
		return nil, forbidden("无权查看该提交")
	}
	return a, nil
}

func (s *AnswerService) list(ctx context.Context, f Filter) ([]answerModel.Answer, error) {
	answers, _, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, dbErr(err)
	}
	if answers == nil {
		answers = []answerModel.Answer{}
	}
	return answers, nil
}

// ListByTask 作业 checker 或管理员，按提交时间倒序
func (s *AnswerService) ListByTask(ctx context.Context, taskID uint, actor *userModel.User) ([]answerModel.Answer, error) {
	t, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !isChecker(t, actor) {
		return nil, forbidden("只有作业的批改人或管理员可以查看全部提交")
	}
	return s.list(ctx, Filter{TaskID: &taskID})
}

// ListSubmittedForTask 待批改的提交
func (s *AnswerService) ListSubmittedForTask(ctx context.Context, taskID uint, actor *userModel.User) ([]answerModel.Answer, error) {
	t, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !isChecker(t, actor) {
		return nil, forbidden("只有作业的批改人或管理员可以查看全部提交")
	}
	return s.list(ctx, Filter{TaskID: &taskID, Status: answerModel.StatusSubmitted})
}

// CountByTask 作业的提交数
func (s *AnswerService) CountByTask(ctx context.Context, taskID uint, actor *userModel.User) (*CountResponse, error) {
	t, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !isChecker(t, actor) {
		return nil, forbidden("只有作业的批改人或管理员可以查看提交数")
	}
	count, err := s.repo.CountByTask(ctx, taskID)
	if err != nil {
		return nil, dbErr(err)
	}
	return &CountResponse{TaskID: taskID, Count: count}, nil
}

// ListByStudent 学生本人或管理员看全部；教师只看到自己批改的作业下的提交
func (s *AnswerService) ListByStudent(ctx context.Context, studentID uint, actor *userModel.User) ([]answerModel.Answer, error) {
	f := Filter{StudentID: &studentID}
	if err := scope(&f, actor, studentID); err != nil {
		return nil, err
	}
	return s.list(ctx, f)
}

// ListGradedForStudent 已批改（GRADED）的提交，按批改时间倒序
func (s *AnswerService) ListGradedForStudent(ctx context.Context, studentID uint, actor *userModel.User) ([]answerModel.Answer, error) {
	f := Filter{StudentID: &studentID, Status: answerModel.StatusGraded, OrderByGraded: true}
	if err := scope(&f, actor, studentID); err != nil {
		return nil, err
	}
	return s.list(ctx, f)
}

// ListWithFilters 教师或管理员按条件分页查询
func (s *AnswerService) ListWithFilters(ctx context.Context, f Filter, actor *userModel.User) (*ListResponse, error) {
	if err := scope(&f, actor, 0); err != nil {
		return nil, err
	}
	if f.GradeMin != nil && f.GradeMax != nil && *f.GradeMin > *f.GradeMax {
		return nil, validationFailed("grade_min 不能大于 grade_max")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}

	answers, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, dbErr(err)
	}
	if answers == nil {
		answers = []answerModel.Answer{}
	}
	return &ListResponse{Items: answers, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// scope 按角色收窄筛选范围，学生只能查自己
func scope(f *Filter, actor *userModel.User, studentID uint) error {
	switch {
	case actor.IsAdmin():
		f.CheckerID = nil
	case studentID != 0 && actor.ID == studentID:
		f.CheckerID = nil
	case actor.Role == userModel.RoleTeacher:
		checker := actor.ID
		f.CheckerID = &checker
	default:
		return forbidden("无权查看他人的提交")
	}
	return nil
}
