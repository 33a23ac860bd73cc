package auth

import (
	"context"
	"errors"
	"log/slog"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/user"
	"terminal-terrace/testmaker/packages/authsdk"
	"terminal-terrace/testmaker/packages/response"
)

// Accounts 登录需要的用户操作
type Accounts interface {
	Authenticate(ctx context.Context, login, password string) (*userModel.User, error)
	LoginWithOAuth(ctx context.Context, id user.OAuthIdentity) (*userModel.User, error)
	Register(ctx context.Context, req user.RegisterRequest) (*userModel.User, error)
}

type AuthService struct {
	accounts Accounts
	issuer   *authsdk.Issuer
	google   IdentityVerifier
	logger   *slog.Logger
}

func NewAuthService(accounts Accounts, issuer *authsdk.Issuer, google IdentityVerifier, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		accounts: accounts,
		issuer:   issuer,
		google:   google,
		logger:   logger,
	}
}

// Login 密码登录
func (s *AuthService) Login(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	u, err := s.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// GoogleLogin 校验 id token，按 provider=GOOGLE 查找或创建用户
func (s *AuthService) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*TokenResponse, error) {
	if s.google == nil {
		return nil, googleUnavailable()
	}
	id, err := s.google.Verify(req.IDToken)
	if err != nil {
		if errors.Is(err, ErrGoogleNotConfigured) {
			return nil, googleUnavailable()
		}
		s.logger.Info("Google id token 校验失败", "error", err)
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Unauthorized),
			response.WithErrorMessage("无效的 Google 令牌"),
			response.WithError(err),
		)
	}

	u, err := s.accounts.LoginWithOAuth(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Register 注册后直接登录
func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (*TokenResponse, error) {
	u, err := s.accounts.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *userModel.User) (*TokenResponse, error) {
	username := u.Email
	if u.Username != nil && *u.Username != "" {
		username = *u.Username
	}
	token, err := s.issuer.Mint(u.ID, username, string(u.Role))
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("生成令牌失败"),
			response.WithError(err),
		)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.issuer.TTL().Seconds()),
		User:        u,
	}, nil
}

func googleUnavailable() error {
	return response.NewBusinessError(
		response.WithErrorCode(response.Fail),
		response.WithErrorMessage("未配置 Google 登录"),
	)
}
