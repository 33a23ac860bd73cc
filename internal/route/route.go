package route

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/answer"
	"terminal-terrace/testmaker/internal/auth"
	"terminal-terrace/testmaker/internal/code"
	"terminal-terrace/testmaker/internal/task"
	"terminal-terrace/testmaker/internal/user"
)

// Handlers 路由需要的全部 handler 与认证中间件
type Handlers struct {
	Auth   *auth.AuthHandler
	User   *user.UserHandler
	Task   *task.TaskHandler
	Answer *answer.AnswerHandler
	Code   *code.CodeHandler

	// JWTAuth 解析令牌并写入当前用户
	JWTAuth gin.HandlerFunc
	// Ping 为 nil 时 /healthz 总是返回 ok
	Ping func(ctx context.Context) error
}

func initRoute(r *gin.Engine, h Handlers) {
	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		if h.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := h.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		auth.RegisterRoutes(apiV1, h.Auth, h.JWTAuth)
		user.RegisterRoutes(apiV1, h.User, h.JWTAuth)
		task.RegisterRoutes(apiV1, h.Task, h.JWTAuth)
		answer.RegisterRoutes(apiV1, h.Answer, h.JWTAuth)
		code.RegisterRoutes(apiV1, h.Code, h.JWTAuth)
	}
}

func SetupRouter(conf config.ServerConfig, h Handlers) *gin.Engine {
	if conf.Mode != "" {
		gin.SetMode(conf.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	origins := conf.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	// 设置跨域请求
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	r.Use(cors.New(corsConfig))

	initRoute(r, h)

	return r
}
