package answer

import (
	"terminal-terrace/testmaker/internal/middleware"
	userModel "terminal-terrace/testmaker/internal/model/user"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *AnswerHandler, auth gin.HandlerFunc) {
	answers := r.Group("/answers", auth)
	{
		answers.GET("/my", h.My)
		answers.GET("/:id", h.Get)

		submit := answers.Group("", middleware.RequireRoles(userModel.RoleStudent, userModel.RoleAdmin))
		submit.POST("", h.Create)
		submit.PUT("/:id", h.Update)
		submit.DELETE("/:id", h.Delete)

		review := answers.Group("", middleware.RequireRoles(userModel.RoleTeacher, userModel.RoleAdmin))
		review.GET("", h.List)
		review.POST("/:id/grade", h.Grade)
		review.GET("/task/:task_id", h.ListByTask)
		review.GET("/task/:task_id/count", h.CountByTask)
		review.GET("/student/:student_id", h.ListByStudent)
	}
}
