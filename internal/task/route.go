package task

import (
	"terminal-terrace/testmaker/internal/middleware"
	userModel "terminal-terrace/testmaker/internal/model/user"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *TaskHandler, auth gin.HandlerFunc) {
	tasks := r.Group("/tasks", auth)
	{
		tasks.GET("", h.List)
		tasks.GET("/:id", h.Get)
		tasks.GET("/:id/attachments/:key/url", h.AttachmentURL)

		manage := tasks.Group("", middleware.RequireRoles(userModel.RoleTeacher, userModel.RoleAdmin))
		manage.POST("", h.Create)
		manage.PUT("/:id", h.Update)
		manage.DELETE("/:id", h.Delete)
		manage.DELETE("/:id/files/:key", h.DeleteFile)
		manage.DELETE("/:id/photos/:key", h.DeletePhoto)
	}
}
