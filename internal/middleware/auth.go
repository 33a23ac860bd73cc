package middleware

import (
	"context"
	"errors"
	"strings"

	"terminal-terrace/testmaker/internal/dto"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/authsdk"
	"terminal-terrace/testmaker/packages/response"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// UserLookup 按令牌主体加载当前用户，没有用户名的第三方账号以邮箱作为主体
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*userModel.User, error)
	GetByEmail(ctx context.Context, email string) (*userModel.User, error)
}

func lookup(ctx context.Context, users UserLookup, subject string) (*userModel.User, error) {
	if strings.Contains(subject, "@") {
		return users.GetByEmail(ctx, subject)
	}
	return users.GetByUsername(ctx, subject)
}

// ResolveUser 把令牌解析出的身份还原为当前用户
// 主体对应的用户必须仍是签发时的那个 id 且处于启用状态，否则返回 Unauthorized
func ResolveUser(ctx context.Context, users UserLookup, claims *authsdk.UserContext) (*userModel.User, error) {
	u, err := lookup(ctx, users, claims.Username)
	if err != nil {
		if response.CodeOf(err) == response.NotFound {
			return nil, unauthorized("用户不存在")
		}
		return nil, err
	}
	if claims.UserID != 0 && u.ID != claims.UserID {
		return nil, unauthorized("令牌与用户不匹配")
	}
	if !u.IsActive {
		return nil, unauthorized("账号已停用")
	}
	return u, nil
}

// tokenFromRequest 优先 Authorization 头，其次 access_token cookie
func tokenFromRequest(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		return authsdk.BearerFromHeader(header)
	}
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", authsdk.ErrNoToken
}

func unauthorized(msg string) *response.BusinessError {
	return response.NewBusinessError(
		response.WithErrorCode(response.Unauthorized),
		response.WithErrorMessage(msg),
	)
}

// JWTAuth 解析令牌并加载用户，用户不存在或已停用均视为未认证
func JWTAuth(issuer *authsdk.Issuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := tokenFromRequest(c)
		if err != nil {
			dto.ErrorResponse(c, unauthorized("未提供认证令牌"))
			c.Abort()
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			msg := "无效的认证令牌"
			if errors.Is(err, authsdk.ErrExpiredToken) {
				msg = "认证令牌已过期"
			}
			dto.ErrorResponse(c, unauthorized(msg))
			c.Abort()
			return
		}

		u, err := ResolveUser(c.Request.Context(), users, claims)
		if err != nil {
			dto.Error(c, err)
			c.Abort()
			return
		}

		SetCurrentUser(c, u)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// RequireRoles 角色不在列表中时返回 403
func RequireRoles(roles ...userModel.Role) gin.HandlerFunc {
	allowed := make(map[userModel.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			dto.ErrorResponse(c, unauthorized("未登录"))
			c.Abort()
			return
		}
		if !allowed[u.Role] {
			dto.ErrorResponse(c, response.NewBusinessError(
				response.WithErrorCode(response.Forbidden),
				response.WithErrorMessage("权限不足"),
			))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetCurrentUser 写入当前用户及其 id、角色
func SetCurrentUser(c *gin.Context, u *userModel.User) {
	c.Set(currentUserKey, u)
	c.Set("user_id", u.ID)
	c.Set("user_role", string(u.Role))
}

// CurrentUser 由 JWTAuth 写入
func CurrentUser(c *gin.Context) (*userModel.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*userModel.User)
	return u, ok && u != nil
}

// MustCurrentUser 只能在 JWTAuth 之后使用
func MustCurrentUser(c *gin.Context) *userModel.User {
	u, ok := CurrentUser(c)
	if !ok {
		panic("middleware: current user missing, JWTAuth not installed")
	}
	return u
}
