package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/app"
	"terminal-terrace/testmaker/internal/database"
	grpcServer "terminal-terrace/testmaker/internal/grpc"
	"terminal-terrace/testmaker/internal/reconcile"
	"terminal-terrace/testmaker/internal/route"
)

const probeInterval = 15 * time.Second

// @title Testmaker API
// @version 1.0
// @description 作业发布、提交与批改
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	conf := config.MustLoad(*configPath)

	// 2. 日志
	logger, closer, err := conf.Log.NewLogger()
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化数据库、Redis 与对象存储
	res, err := database.Init(ctx, conf)
	if err != nil {
		logger.Error("初始化资源失败", "error", err)
		os.Exit(1)
	}
	defer res.Close()

	// 4. 装配服务
	a := app.New(conf, res, logger)

	// 5. gRPC 健康检查
	var grpcSrv *grpcServer.Server
	if conf.GRPC.Enabled {
		grpcSrv, err = a.GRPCServer(conf.GRPC.Port)
		if err != nil {
			logger.Error("启动 gRPC 失败", "error", err)
			os.Exit(1)
		}
		go func() {
			logger.Info("gRPC 服务已启动", "addr", grpcSrv.GetAddr())
			if err := grpcSrv.Start(); err != nil {
				logger.Error("gRPC 服务异常退出", "error", err)
			}
		}()
		go grpcServer.RunProbe(ctx, grpcSrv.Health(), res.Ping, probeInterval, logger)
	}

	// 6. 孤儿对象定时清理
	if conf.Reconcile.Enabled {
		c, err := reconcile.Schedule(a.Sweeper, conf.Reconcile.Schedule, logger)
		if err != nil {
			logger.Error("调度清理任务失败", "error", err)
			os.Exit(1)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	// 7. HTTP
	srv := &http.Server{
		Addr:         conf.Server.Addr(),
		Handler:      route.SetupRouter(conf.Server, a.Handlers()),
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
	}
	go func() {
		logger.Info("HTTP 服务已启动", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP 服务异常退出", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("正在关闭服务")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP 服务关闭失败", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
}
