// Package app 按配置装配各服务，进程入口与运维命令共用
package app

import (
	"context"
	"log/slog"
	"time"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/answer"
	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/internal/auth"
	"terminal-terrace/testmaker/internal/code"
	"terminal-terrace/testmaker/internal/database"
	grpcServer "terminal-terrace/testmaker/internal/grpc"
	"terminal-terrace/testmaker/internal/lock"
	"terminal-terrace/testmaker/internal/middleware"
	"terminal-terrace/testmaker/internal/reconcile"
	"terminal-terrace/testmaker/internal/route"
	"terminal-terrace/testmaker/internal/task"
	"terminal-terrace/testmaker/internal/user"
	"terminal-terrace/testmaker/packages/authsdk"
	"terminal-terrace/testmaker/packages/email"
)

const (
	issuerName = "testmaker"
	lockTTL    = 10 * time.Second
	lockWait   = 3 * time.Second
)

// App 一次装配出的全部服务，生命周期跟随 Resources
type App struct {
	Issuer  *authsdk.Issuer
	Users   *user.UserService
	Auth    *auth.AuthService
	Tasks   *task.TaskService
	Answers *answer.AnswerService
	Codes   *code.CodeService
	Sweeper *reconcile.Sweeper

	ping func(ctx context.Context) error
}

// New 依赖全部来自参数，不读取全局状态
func New(conf *config.AppConfig, res *database.Resources, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	issuer := authsdk.NewIssuer(conf.JWT.Secret, conf.JWT.ExpireTime, authsdk.WithIssuerName(issuerName))
	files := attachment.NewManager(res.Store, conf.Upload.MaxFileSize, logger)

	var locker lock.Locker = lock.NewLocalLocker()
	var codeStore code.Store = code.NewMemoryStore()
	if res.Redis != nil {
		locker = lock.NewRedisLocker(res.Redis, lockTTL, lockWait)
		codeStore = code.NewRedisStore(res.Redis)
	}

	userRepo := user.NewUserRepository(res.DB)
	taskRepo := task.NewTaskRepository(res.DB)
	answerRepo := answer.NewAnswerRepository(res.DB)

	users := user.NewUserService(userRepo, userRepo, user.NewBcryptHasher(), files, logger)
	tasks := task.NewTaskService(taskRepo, files, locker, conf.Upload.PresignTTL, logger)
	answers := answer.NewAnswerService(answerRepo, taskRepo, userRepo, files, locker, logger)

	var codeMailer code.Mailer
	if sender := email.NewSender(&conf.SMTP); sender != nil {
		mailer := email.NewMailer(sender, conf.SMTP.From, conf.SMTP.AppName)
		users.SetWelcomer(mailer)
		answers.SetNotifier(mailer)
		codeMailer = mailer
		logger.Info("邮件通知已启用", "driver", conf.SMTP.Driver)
	}

	var google auth.IdentityVerifier
	if conf.Google.ClientID != "" {
		google = auth.NewGoogleVerifier(conf.Google.ClientID)
	}

	sweeper := reconcile.NewSweeper(res.Store, reconcile.NewReferenceRepository(res.DB), reconcile.Options{
		MinAge: conf.Reconcile.MinAge,
		DryRun: conf.Reconcile.DryRun,
	}, logger)

	return &App{
		Issuer:  issuer,
		Users:   users,
		Auth:    auth.NewAuthService(users, issuer, google, logger),
		Tasks:   tasks,
		Answers: answers,
		Codes:   code.NewCodeService(codeStore, users, codeMailer, logger),
		Sweeper: sweeper,
		ping:    res.Ping,
	}
}

// Handlers HTTP 层
func (a *App) Handlers() route.Handlers {
	return route.Handlers{
		Auth:    auth.NewAuthHandler(a.Auth),
		User:    user.NewUserHandler(a.Users),
		Task:    task.NewTaskHandler(a.Tasks),
		Answer:  answer.NewAnswerHandler(a.Answers),
		Code:    code.NewCodeHandler(a.Codes),
		JWTAuth: middleware.JWTAuth(a.Issuer, a.Users),
		Ping:    a.ping,
	}
}

// GRPCServer 令牌按与 HTTP 相同的规则还原用户
func (a *App) GRPCServer(port int) (*grpcServer.Server, error) {
	return grpcServer.NewServer(port, a.Issuer, a.Users)
}
