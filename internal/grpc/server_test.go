package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/authsdk"
	"terminal-terrace/testmaker/packages/response"
)

func newIssuer() *authsdk.Issuer {
	return authsdk.NewIssuer("grpc-test-secret", time.Hour)
}

type fakeUsers map[string]*userModel.User

func (f fakeUsers) GetByUsername(ctx context.Context, username string) (*userModel.User, error) {
	if u, ok := f[username]; ok {
		return u, nil
	}
	return nil, response.NewBusinessError(response.WithErrorCode(response.NotFound))
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	for _, u := range f {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, response.NewBusinessError(response.WithErrorCode(response.NotFound))
}

func newUsers() fakeUsers {
	return fakeUsers{
		"alice":  {ID: 1, Role: userModel.RoleTeacher, IsActive: true},
		"root":   {ID: 2, Role: userModel.RoleAdmin, IsActive: true},
		"frozen": {ID: 3, Role: userModel.RoleAdmin, IsActive: false},
	}
}

func withToken(t *testing.T, issuer *authsdk.Issuer, id uint, name, role string) context.Context {
	t.Helper()
	token, err := issuer.Mint(id, name, role)
	require.NoError(t, err)
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestUnaryAuthInterceptor(t *testing.T) {
	issuer := newIssuer()
	interceptor := UnaryAuthInterceptor(issuer, newUsers())

	var seen *authsdk.UserContext
	handler := func(ctx context.Context, req any) (any, error) {
		seen, _ = authsdk.UserFromContext(ctx)
		return "ok", nil
	}

	const sweep = "/testmaker.Admin/Sweep"
	const reflect = "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"
	tests := []struct {
		name   string
		ctx    context.Context
		method string
		want   codes.Code
	}{
		{"健康检查无需令牌", context.Background(), "/grpc.health.v1.Health/Check", codes.OK},
		{"缺少令牌", context.Background(), sweep, codes.Unauthenticated},
		{"令牌无效", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer junk")), sweep, codes.Unauthenticated},
		{"有效令牌", withToken(t, issuer, 1, "alice", "TEACHER"), sweep, codes.OK},
		{"用户不存在", withToken(t, issuer, 9, "ghost", "TEACHER"), sweep, codes.Unauthenticated},
		{"主体已属于其他用户", withToken(t, issuer, 5, "root", "STUDENT"), sweep, codes.Unauthenticated},
		{"反射需要管理员", withToken(t, issuer, 1, "alice", "TEACHER"), reflect, codes.PermissionDenied},
		{"管理员可以反射", withToken(t, issuer, 2, "root", "ADMIN"), reflect, codes.OK},
		{"已降级的管理员令牌", withToken(t, issuer, 1, "alice", "ADMIN"), reflect, codes.PermissionDenied},
		{"已停用的管理员", withToken(t, issuer, 3, "frozen", "ADMIN"), reflect, codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			_, err := interceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}

	// 上下文中的角色来自用户当前记录，而不是令牌
	_, err := interceptor(withToken(t, issuer, 1, "alice", "ADMIN"), nil, &grpc.UnaryServerInfo{FullMethod: sweep}, handler)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)
	assert.Equal(t, uint(1), seen.UserID)
	assert.Equal(t, "TEACHER", seen.Role)
}

func TestServer_HealthFollowsProbe(t *testing.T) {
	srv, err := NewServer(0, newIssuer(), newUsers())
	require.NoError(t, err)
	go func() { _ = srv.Start() }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(srv.GetAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	client := healthpb.NewHealthClient(conn)

	ctx := context.Background()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	healthy := make(chan error, 1)
	healthy <- nil
	go RunProbe(probeCtx, srv.Health(), func(context.Context) error {
		select {
		case err := <-healthy:
			return err
		default:
			return errors.New("redis down")
		}
	}, 20*time.Millisecond, nil)

	assert.Eventually(t, func() bool {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)
}
