package user

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/internal/database"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/response"
)

// OwnedAttachments 列出某用户的作业、作业下的提交以及该用户自己的提交中的全部附件
type OwnedAttachments interface {
	AttachmentsOwnedBy(ctx context.Context, userID uint) ([]attachmentModel.List, error)
}

// Welcomer 注册成功后的通知
type Welcomer interface {
	SendWelcome(to, username string) error
}

type UserService struct {
	repo     UserRepository
	owned    OwnedAttachments
	hasher   Hasher
	files    *attachment.Manager
	welcomer Welcomer
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(repo UserRepository, owned OwnedAttachments, hasher Hasher, files *attachment.Manager, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:   repo,
		owned:  owned,
		hasher: hasher,
		files:  files,
		logger: logger,
		now:    time.Now,
	}
}

// SetWelcomer 配置了邮件时才调用
func (s *UserService) SetWelcomer(w Welcomer) {
	s.welcomer = w
}

func dbErr(err error) error {
	return database.TranslateError(err, "用户不存在", "用户名或邮箱已存在")
}

func validationFailed(msg string) error {
	return response.NewBusinessError(
		response.WithErrorCode(response.ValidationFailed),
		response.WithErrorMessage(msg),
	)
}

// Create 管理员创建用户
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*userModel.User, error) {
	if err := s.ensureUnique(ctx, &req.Email, req.Username, 0); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = userModel.RoleStudent
	}
	if !role.Valid() {
		return nil, validationFailed("未知角色")
	}
	if req.Password != nil && *req.Password != "" && len(*req.Password) < 6 {
		return nil, validationFailed("密码长度不能少于 6 位")
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	u := &userModel.User{
		Email:         strings.TrimSpace(req.Email),
		Username:      req.Username,
		FullName:      req.FullName,
		Role:          role,
		OAuthProvider: userModel.ProviderLocal,
		IsActive:      isActive,
		IsVerified:    req.IsVerified,
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, response.NewBusinessError(
				response.WithErrorCode(response.Fail),
				response.WithErrorMessage("密码加密失败"),
				response.WithError(err),
			)
		}
		u.HashedPassword = &hash
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

// Register 自助注册，角色为 STUDENT
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*userModel.User, error) {
	username := req.Username
	password := req.Password
	u, err := s.Create(ctx, CreateUserRequest{
		Email:    req.Email,
		Username: &username,
		FullName: req.FullName,
		Password: &password,
		Role:     userModel.RoleStudent,
	})
	if err != nil {
		return nil, err
	}

	if s.welcomer != nil {
		if err := s.welcomer.SendWelcome(u.Email, u.DisplayName()); err != nil {
			s.logger.Warn("发送欢迎邮件失败", "user_id", u.ID, "error", err)
		}
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*userModel.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*userModel.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

// List 分页查询
func (s *UserService) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	users, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, dbErr(err)
	}
	if users == nil {
		users = []userModel.User{}
	}
	return &ListResponse{Items: users, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// ensureUnique 检查用户名和邮箱没有被其他用户占用
func (s *UserService) ensureUnique(ctx context.Context, email, username *string, selfID uint) error {
	if email != nil {
		taken, err := s.repo.EmailTaken(ctx, *email, selfID)
		if err != nil {
			return dbErr(err)
		}
		if taken {
			return response.NewBusinessError(
				response.WithErrorCode(response.Conflict),
				response.WithErrorMessage("邮箱已被注册"),
			)
		}
	}
	if username != nil {
		taken, err := s.repo.UsernameTaken(ctx, *username, selfID)
		if err != nil {
			return dbErr(err)
		}
		if taken {
			return response.NewBusinessError(
				response.WithErrorCode(response.Conflict),
				response.WithErrorMessage("用户名已存在"),
			)
		}
	}
	return nil
}

// UpdateProfile 用户修改自己的资料，修改邮箱后需要重新验证
func (s *UserService) UpdateProfile(ctx context.Context, self *userModel.User, patch ProfilePatch) (*userModel.User, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return s.GetByID(ctx, self.ID)
	}
	if err := s.ensureUnique(ctx, patch.Email, patch.Username, self.ID); err != nil {
		return nil, err
	}
	if patch.Email != nil && *patch.Email != self.Email {
		changes["is_email_verified"] = false
	}
	if err := s.repo.Update(ctx, self.ID, changes); err != nil {
		return nil, dbErr(err)
	}
	return s.GetByID(ctx, self.ID)
}

// MarkEmailVerified 验证码校验通过后调用，期间邮箱被修改则返回 Conflict
func (s *UserService) MarkEmailVerified(ctx context.Context, id uint, email string) error {
	ok, err := s.repo.MarkEmailVerified(ctx, id, email)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return response.NewBusinessError(
			response.WithErrorCode(response.Conflict),
			response.WithErrorMessage("邮箱已变更，请重新获取验证码"),
		)
	}
	return nil
}

// UpdateByAdmin 管理员修改任意字段
func (s *UserService) UpdateByAdmin(ctx context.Context, id uint, patch AdminPatch) (*userModel.User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, validationFailed("未知角色")
	}
	if err := s.ensureUnique(ctx, patch.Email, patch.Username, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, patch.Changes()); err != nil {
		return nil, dbErr(err)
	}
	return s.GetByID(ctx, id)
}

// ChangePassword 校验旧密码后修改
func (s *UserService) ChangePassword(ctx context.Context, self *userModel.User, oldPassword, newPassword string) error {
	u, err := s.GetByID(ctx, self.ID)
	if err != nil {
		return err
	}
	if !u.HasLocalPassword() {
		return validationFailed("第三方登录账号不能修改密码")
	}
	if !s.hasher.Verify(oldPassword, *u.HashedPassword) {
		return validationFailed("原密码错误")
	}
	return s.setPassword(ctx, u.ID, newPassword)
}

// ResetPassword 管理员重置密码，不校验旧密码
func (s *UserService) ResetPassword(ctx context.Context, id uint, newPassword string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.HasLocalPassword() {
		return validationFailed("第三方登录账号不能重置密码")
	}
	return s.setPassword(ctx, u.ID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, id uint, plain string) error {
	if len(plain) < 6 {
		return validationFailed("密码长度不能少于 6 位")
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("密码加密失败"),
			response.WithError(err),
		)
	}
	if err := s.repo.Update(ctx, id, map[string]any{"hashed_password": hash}); err != nil {
		return dbErr(err)
	}
	return nil
}

// Delete 删除用户，先收集其名下全部附件，删除行后再清理对象
func (s *UserService) Delete(ctx context.Context, id uint) (attachment.CleanupReport, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return attachment.CleanupReport{}, err
	}

	lists, err := s.owned.AttachmentsOwnedBy(ctx, id)
	if err != nil {
		return attachment.CleanupReport{}, dbErr(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return attachment.CleanupReport{}, dbErr(err)
	}

	report := s.files.DeleteAll(context.WithoutCancel(ctx), lists...)
	if !report.OK() {
		s.logger.Warn("删除用户后部分附件未能清理", "user_id", id, "failed", report.Failed)
	}
	return report, nil
}

// DeleteOwnAccount 本地账号需要密码确认
func (s *UserService) DeleteOwnAccount(ctx context.Context, self *userModel.User, password string) (attachment.CleanupReport, error) {
	u, err := s.GetByID(ctx, self.ID)
	if err != nil {
		return attachment.CleanupReport{}, err
	}
	if u.HasLocalPassword() && !s.hasher.Verify(password, *u.HashedPassword) {
		return attachment.CleanupReport{}, validationFailed("密码错误")
	}
	return s.Delete(ctx, u.ID)
}

// Authenticate 用户名或邮箱加密码登录，成功后记录登录时间
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*userModel.User, error) {
	var (
		u   *userModel.User
		err error
	)
	if strings.Contains(login, "@") {
		u, err = s.repo.GetByEmail(ctx, login)
	} else {
		u, err = s.repo.GetByUsername(ctx, login)
	}
	if err != nil {
		if database.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, dbErr(err)
	}
	if !u.HasLocalPassword() || !s.hasher.Verify(password, *u.HashedPassword) {
		return nil, invalidCredentials()
	}
	if !u.IsActive {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Forbidden),
			response.WithErrorMessage("账号已停用"),
		)
	}

	s.touchLogin(ctx, u)
	return u, nil
}

func invalidCredentials() error {
	return response.NewBusinessError(
		response.WithErrorCode(response.Unauthorized),
		response.WithErrorMessage("用户名或密码错误"),
	)
}

func (s *UserService) touchLogin(ctx context.Context, u *userModel.User) {
	now := s.now()
	if err := s.repo.Update(ctx, u.ID, map[string]any{"last_login_at": now}); err != nil {
		s.logger.Warn("更新登录时间失败", "user_id", u.ID, "error", err)
		return
	}
	u.LastLoginAt = &now
}

// LoginWithOAuth 按 (provider, subject) 查找；没有则按已验证的邮箱关联已有账号；都没有则创建 STUDENT
func (s *UserService) LoginWithOAuth(ctx context.Context, id OAuthIdentity) (*userModel.User, error) {
	if id.Subject == "" || id.Email == "" {
		return nil, validationFailed("第三方身份信息不完整")
	}

	u, err := s.repo.GetByOAuth(ctx, id.Provider, id.Subject)
	switch {
	case err == nil:
	case database.IsNotFound(err):
		u, err = s.linkOrCreate(ctx, id)
		if err != nil {
			return nil, err
		}
	default:
		return nil, dbErr(err)
	}

	if !u.IsActive {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Forbidden),
			response.WithErrorMessage("账号已停用"),
		)
	}
	s.touchLogin(ctx, u)
	return u, nil
}

func (s *UserService) linkOrCreate(ctx context.Context, id OAuthIdentity) (*userModel.User, error) {
	existing, err := s.repo.GetByEmail(ctx, id.Email)
	if err == nil {
		// 第三方未验证邮箱时不能接管已有账号
		if !id.Verified {
			return nil, response.NewBusinessError(
				response.WithErrorCode(response.Conflict),
				response.WithErrorMessage("该邮箱已注册，请使用密码登录"),
			)
		}
		changes := map[string]any{
			"oauth_provider":    id.Provider,
			"oauth_id":          id.Subject,
			"is_email_verified": true,
		}
		if err := s.repo.Update(ctx, existing.ID, changes); err != nil {
			return nil, dbErr(err)
		}
		return s.GetByID(ctx, existing.ID)
	}
	if !database.IsNotFound(err) {
		return nil, dbErr(err)
	}

	subject := id.Subject
	u := &userModel.User{
		Email:           id.Email,
		Role:            userModel.RoleStudent,
		OAuthProvider:   id.Provider,
		OAuthID:         &subject,
		IsActive:        true,
		IsVerified:      id.Verified,
		IsEmailVerified: id.Verified,
	}
	if id.FullName != "" {
		name := id.FullName
		u.FullName = &name
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}
