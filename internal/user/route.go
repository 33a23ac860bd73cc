package user

import (
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes auth 为已构造好的 JWTAuth 中间件
func RegisterRoutes(r *gin.RouterGroup, h *UserHandler, auth gin.HandlerFunc) {
	users := r.Group("/users")
	users.Use(auth)
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", h.UpdateMe)
		users.POST("/me/password", h.ChangePassword)
		users.DELETE("/me", h.DeleteMe)

		admin := users.Group("")
		admin.Use(middleware.RequireRoles(userModel.RoleAdmin))
		{
			admin.GET("", h.List)
			admin.POST("", h.Create)
			admin.GET("/by-username/:username", h.GetByUsername)
			admin.GET("/by-email/:email", h.GetByEmail)
			admin.GET("/:id", h.Get)
			admin.PUT("/:id", h.Update)
			admin.POST("/:id/reset-password", h.ResetPassword)
			admin.DELETE("/:id", h.Delete)
		}
	}
}
