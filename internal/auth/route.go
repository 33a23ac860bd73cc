package auth

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *AuthHandler, auth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/token", h.Token)
		authGroup.POST("/google", h.Google)
		authGroup.POST("/register", h.Register)
		authGroup.GET("/me", auth, h.Me)
	}
}
