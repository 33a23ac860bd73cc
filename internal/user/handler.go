package user

import (
	"terminal-terrace/testmaker/internal/dto"
	"terminal-terrace/testmaker/internal/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *UserService
}

func NewUserHandler(userService *UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe 当前用户资料
// @Summary 当前用户资料
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	dto.SuccessResponse(c, middleware.MustCurrentUser(c))
}

// UpdateMe 修改自己的资料
// @Summary 修改自己的资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProfilePatch true "要修改的字段"
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	u, err := h.userService.UpdateProfile(c.Request.Context(), middleware.MustCurrentUser(c), req)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, u)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "旧密码与新密码"
// @Success 200 {object} response.Response
// @Router /users/me/password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), middleware.MustCurrentUser(c), req.OldPassword, req.NewPassword); err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// DeleteMe 注销自己的账号
// @Summary 注销账号
// @Description 删除账号及其名下的作业、提交和附件
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DeleteAccountRequest false "本地账号需要密码"
// @Success 200 {object} response.Response{data=attachment.CleanupReport}
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	var req DeleteAccountRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.ValidationErrorResponse(c, err)
			return
		}
	}

	report, err := h.userService.DeleteOwnAccount(c.Request.Context(), middleware.MustCurrentUser(c), req.Password)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, report)
}

// List 用户列表（管理员）
// @Summary 用户列表
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param role query string false "角色"
// @Param is_active query bool false "是否启用"
// @Param search query string false "用户名/邮箱/姓名"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=ListResponse}
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.userService.List(c.Request.Context(), q)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Create 创建用户（管理员）
// @Summary 创建用户
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateUserRequest true "用户信息"
// @Success 201 {object} response.Response{data=userModel.User}
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	u, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.CreatedResponse(c, u)
}

// Get 按 ID 查询用户（管理员）
// @Summary 查询用户
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, u)
}

// GetByUsername 按用户名查询（管理员）
// @Summary 按用户名查询
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param username path string true "用户名"
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /users/by-username/{username} [get]
func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, u)
}

// GetByEmail 按邮箱查询（管理员）
// @Summary 按邮箱查询
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param email path string true "邮箱"
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /users/by-email/{email} [get]
func (h *UserHandler) GetByEmail(c *gin.Context) {
	u, err := h.userService.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, u)
}

// Update 修改任意字段（管理员）
// @Summary 管理员修改用户
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param body body AdminPatch true "要修改的字段"
// @Success 200 {object} response.Response{data=userModel.User}
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "用户ID")
	if !ok {
		return
	}
	var req AdminPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	u, err := h.userService.UpdateByAdmin(c.Request.Context(), id, req)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, u)
}

// ResetPassword 重置密码（管理员）
// @Summary 重置密码
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param body body ResetPasswordRequest true "新密码"
// @Success 200 {object} response.Response
// @Router /users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "用户ID")
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// Delete 删除用户（管理员）
// @Summary 删除用户
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=attachment.CleanupReport}
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	report, err := h.userService.Delete(c.Request.Context(), id)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, report)
}
