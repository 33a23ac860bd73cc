package authsdk

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// BearerFromHeader 从 Authorization 头取出令牌
func BearerFromHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// ExtractTokenFromContext 从 gRPC context 的 metadata 中提取 JWT token
// 支持 authorization (Bearer) 与 x-access-token 两种 header
func ExtractTokenFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ErrNoToken
	}

	if values := md.Get("authorization"); len(values) > 0 {
		return BearerFromHeader(values[0])
	}

	if values := md.Get("x-access-token"); len(values) > 0 && values[0] != "" {
		return values[0], nil
	}

	return "", ErrNoToken
}

type userContextKey struct{}

// ContextWithUser 把已认证用户放进 context
func ContextWithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext 取出已认证用户
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey{}).(*UserContext)
	return user, ok && user != nil
}
