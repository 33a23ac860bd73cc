package code

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes auth 为已构造好的 JWTAuth 中间件
func RegisterRoutes(r *gin.RouterGroup, h *CodeHandler, auth gin.HandlerFunc) {
	me := r.Group("/users/me/verify-email")
	me.Use(auth)
	{
		me.POST("/code", h.SendEmailVerification)
		me.POST("", h.VerifyEmail)
	}
}
