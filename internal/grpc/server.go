package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"terminal-terrace/testmaker/internal/middleware"
	"terminal-terrace/testmaker/packages/authsdk"
)

// ServiceName 健康检查中本服务的名字
const ServiceName = "testmaker"

// Server wraps the gRPC server
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	health     *health.Server
}

// NewServer 注册健康检查与反射服务，反射仅对管理员开放
func NewServer(port int, issuer *authsdk.Issuer, users middleware.UserLookup) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryAuthInterceptor(issuer, users)),
		grpc.ChainStreamInterceptor(StreamAuthInterceptor(issuer, users)),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		grpcServer: grpcServer,
		listener:   listener,
		health:     healthServer,
	}, nil
}

// Start starts the gRPC server (blocking)
func (s *Server) Start() error {
	return s.grpcServer.Serve(s.listener)
}

// Stop 先把健康状态置为 NOT_SERVING 再优雅退出
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	return s.listener.Addr().String()
}

// Health 供探针更新状态
func (s *Server) Health() *health.Server {
	return s.health
}
