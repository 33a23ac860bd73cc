package auth

import (
	"terminal-terrace/testmaker/internal/dto"
	"terminal-terrace/testmaker/internal/middleware"
	"terminal-terrace/testmaker/internal/user"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *AuthService
}

func NewAuthHandler(authService *AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token 用户名/邮箱密码登录
// @Summary 密码登录
// @Description 支持 application/x-www-form-urlencoded 和 JSON
// @Tags 认证
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param body body TokenRequest true "登录信息"
// @Success 200 {object} response.Response{data=TokenResponse}
// @Failure 401 {object} response.Response
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Google 使用 Google id token 登录
// @Summary Google 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body GoogleLoginRequest true "id token"
// @Success 200 {object} response.Response{data=TokenResponse}
// @Failure 401 {object} response.Response
// @Router /auth/google [post]
func (h *AuthHandler) Google(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.authService.GoogleLogin(c.Request.Context(), req)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Register 学生自助注册
// @Summary 注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body user.RegisterRequest true "注册信息"
// @Success 201 {object} response.Response{data=TokenResponse}
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.CreatedResponse(c, result)
}

// Me 当前登录用户
// @Summary 当前用户
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	dto.SuccessResponse(c, middleware.MustCurrentUser(c))
}
