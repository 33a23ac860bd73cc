package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"terminal-terrace/testmaker/internal/middleware"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/authsdk"
	"terminal-terrace/testmaker/packages/response"
)

// 健康检查对所有人开放，其余方法需要令牌，反射还需要管理员
const (
	healthPrefix     = "/grpc.health.v1.Health/"
	reflectionPrefix = "/grpc.reflection."
)

// authenticate 返回写入了用户的 context，角色以数据库中的当前值为准
func authenticate(ctx context.Context, issuer *authsdk.Issuer, users middleware.UserLookup, fullMethod string) (context.Context, error) {
	if strings.HasPrefix(fullMethod, healthPrefix) {
		return ctx, nil
	}

	token, err := authsdk.ExtractTokenFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "缺少访问令牌")
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		if errors.Is(err, authsdk.ErrExpiredToken) {
			return nil, status.Error(codes.Unauthenticated, "访问令牌已过期")
		}
		return nil, status.Error(codes.Unauthenticated, "访问令牌无效")
	}

	u, err := middleware.ResolveUser(ctx, users, claims)
	if err != nil {
		if be, ok := response.AsBusinessError(err); ok && be.Code == response.Unauthorized {
			return nil, status.Error(codes.Unauthenticated, be.Msg)
		}
		return nil, status.Error(codes.Internal, "加载用户失败")
	}
	if strings.HasPrefix(fullMethod, reflectionPrefix) && u.Role != userModel.RoleAdmin {
		return nil, status.Error(codes.PermissionDenied, "需要管理员权限")
	}
	return authsdk.ContextWithUser(ctx, &authsdk.UserContext{
		UserID:   u.ID,
		Username: claims.Username,
		Role:     string(u.Role),
	}), nil
}

func UnaryAuthInterceptor(issuer *authsdk.Issuer, users middleware.UserLookup) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, issuer, users, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context {
	return s.ctx
}

func StreamAuthInterceptor(issuer *authsdk.Issuer, users middleware.UserLookup) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), issuer, users, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
	}
}
