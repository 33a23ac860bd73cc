// Package code 发送并校验邮箱验证码
package code

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/response"
)

const (
	// 验证码有效期
	CodeTTL = 10 * time.Minute
	// 同一邮箱两次发送的最小间隔
	ResendCooldown = time.Minute
	// 超过后验证码作废
	MaxAttempts = 5
	CodeLength  = 6
	keyPrefix   = "code:"
)

// Mailer 发送验证码邮件
type Mailer interface {
	SendVerificationCode(to, code string, expireMinutes int) error
}

// Accounts 用户读取与验证状态写入
type Accounts interface {
	GetByID(ctx context.Context, id uint) (*userModel.User, error)
	MarkEmailVerified(ctx context.Context, id uint, email string) error
}

type CodeService struct {
	store    Store
	accounts Accounts
	mailer   Mailer
	logger   *slog.Logger
	generate func() (string, error)
}

// NewCodeService mailer 为 nil 时发送接口返回错误
func NewCodeService(store Store, accounts Accounts, mailer Mailer, logger *slog.Logger) *CodeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeService{
		store:    store,
		accounts: accounts,
		mailer:   mailer,
		logger:   logger,
		generate: generateCode,
	}
}

// generateCode 生成定长数字验证码
func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// codeKey 绑定用户与当时的邮箱，改邮箱后旧验证码自然失效
func codeKey(purpose Purpose, userID uint, email string) string {
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, purpose, userID, strings.ToLower(email))
}

func validationFailed(msg string) error {
	return response.NewBusinessError(
		response.WithErrorCode(response.ValidationFailed),
		response.WithErrorMessage(msg),
	)
}

func storeFailed(err error) error {
	return response.NewBusinessError(
		response.WithErrorCode(response.Fail),
		response.WithErrorMessage("验证码存储失败"),
		response.WithError(err),
	)
}

// SendEmailVerification 向当前邮箱发送验证码
func (s *CodeService) SendEmailVerification(ctx context.Context, self *userModel.User) (*SendCodeResponse, error) {
	if s.mailer == nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("未配置邮件服务"),
		)
	}
	u, err := s.accounts.GetByID(ctx, self.ID)
	if err != nil {
		return nil, err
	}
	if u.IsEmailVerified {
		return nil, validationFailed("邮箱已验证")
	}

	code, err := s.generate()
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("生成验证码失败"),
			response.WithError(err),
		)
	}

	key := codeKey(PurposeVerifyEmail, u.ID, u.Email)
	saved, err := s.store.Save(ctx, key, code, CodeTTL, ResendCooldown)
	if err != nil {
		return nil, storeFailed(err)
	}
	if !saved {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Conflict),
			response.WithErrorMessage("验证码已发送，请稍后再试"),
		)
	}

	if err := s.mailer.SendVerificationCode(u.Email, code, int(CodeTTL/time.Minute)); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("删除未送达的验证码失败", "user_id", u.ID, "error", delErr)
		}
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("发送验证码邮件失败"),
			response.WithError(err),
		)
	}

	s.logger.Info("邮箱验证码已发送", "user_id", u.ID)
	return &SendCodeResponse{Email: u.Email, ExpiresIn: int(CodeTTL / time.Second)}, nil
}

// VerifyEmail 校验验证码并把当前邮箱标记为已验证；已验证时直接返回
func (s *CodeService) VerifyEmail(ctx context.Context, self *userModel.User, code string) error {
	u, err := s.accounts.GetByID(ctx, self.ID)
	if err != nil {
		return err
	}
	if u.IsEmailVerified {
		return nil
	}

	key := codeKey(PurposeVerifyEmail, u.ID, u.Email)
	stored, err := s.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return validationFailed("验证码已过期或不存在")
		}
		return storeFailed(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.store.Fail(ctx, key, CodeTTL)
		if err != nil {
			return storeFailed(err)
		}
		if attempts >= MaxAttempts {
			if err := s.store.Delete(ctx, key); err != nil {
				return storeFailed(err)
			}
			return validationFailed("验证码错误次数过多，请重新获取")
		}
		return validationFailed("验证码错误")
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return storeFailed(err)
	}
	return s.accounts.MarkEmailVerified(ctx, u.ID, u.Email)
}
