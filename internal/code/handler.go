package code

import (
	"terminal-terrace/testmaker/internal/dto"
	"terminal-terrace/testmaker/internal/middleware"

	"github.com/gin-gonic/gin"
)

type CodeHandler struct {
	service *CodeService
}

func NewCodeHandler(service *CodeService) *CodeHandler {
	return &CodeHandler{service: service}
}

// SendEmailVerification 发送邮箱验证码
// @Summary 发送邮箱验证码
// @Description 向当前账号的邮箱发送 6 位验证码，一分钟内只能发送一次
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=SendCodeResponse}
// @Failure 409 {object} response.Response "发送过于频繁"
// @Failure 422 {object} response.Response "邮箱已验证"
// @Router /users/me/verify-email/code [post]
func (h *CodeHandler) SendEmailVerification(c *gin.Context) {
	resp, err := h.service.SendEmailVerification(c.Request.Context(), middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, resp)
}

// VerifyEmail 校验邮箱验证码
// @Summary 验证邮箱
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VerifyEmailRequest true "验证码"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response "验证码错误或已过期"
// @Router /users/me/verify-email [post]
func (h *CodeHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), middleware.MustCurrentUser(c), req.Code); err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}
