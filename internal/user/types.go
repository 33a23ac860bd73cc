package user

import (
	userModel "terminal-terrace/testmaker/internal/model/user"
)

// CreateUserRequest 管理员创建用户
type CreateUserRequest struct {
	Email      string         `json:"email" binding:"required,email,max=255"`
	Username   *string        `json:"username" binding:"omitempty,min=3,max=50,excludes=@"`
	FullName   *string        `json:"full_name" binding:"omitempty,max=255"`
	Password   *string        `json:"password" binding:"omitempty,min=6,max=128"`
	Role       userModel.Role `json:"role" binding:"omitempty,oneof=STUDENT TEACHER ADMIN"`
	IsActive   *bool          `json:"is_active"`
	IsVerified bool           `json:"is_verified"`
}

// RegisterRequest 自助注册，角色固定为 STUDENT
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Username string  `json:"username" binding:"required,min=3,max=50,excludes=@"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=128"`
}

// ProfilePatch 用户自己可修改的字段，nil 表示不修改
type ProfilePatch struct {
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Username *string `json:"username" binding:"omitempty,min=3,max=50,excludes=@"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
}

// Changes 转成列名到新值的映射
func (p ProfilePatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.Email != nil {
		changes["email"] = *p.Email
	}
	if p.Username != nil {
		changes["username"] = *p.Username
	}
	if p.FullName != nil {
		changes["full_name"] = *p.FullName
	}
	return changes
}

// AdminPatch 管理员可修改任意字段
type AdminPatch struct {
	ProfilePatch
	Role            *userModel.Role `json:"role" binding:"omitempty,oneof=STUDENT TEACHER ADMIN"`
	IsActive        *bool           `json:"is_active"`
	IsVerified      *bool           `json:"is_verified"`
	IsEmailVerified *bool           `json:"is_email_verified"`
}

func (p AdminPatch) Changes() map[string]any {
	changes := p.ProfilePatch.Changes()
	if p.Role != nil {
		changes["role"] = *p.Role
	}
	if p.IsActive != nil {
		changes["is_active"] = *p.IsActive
	}
	if p.IsVerified != nil {
		changes["is_verified"] = *p.IsVerified
	}
	if p.IsEmailVerified != nil {
		changes["is_email_verified"] = *p.IsEmailVerified
	}
	return changes
}

// ChangePasswordRequest 修改密码
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}

// ResetPasswordRequest 管理员重置密码
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}

// DeleteAccountRequest 注销自己的账号
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// ListQuery 用户列表筛选
type ListQuery struct {
	Role     userModel.Role `form:"role" binding:"omitempty,oneof=STUDENT TEACHER ADMIN"`
	IsActive *bool          `form:"is_active"`
	Search   string         `form:"search" binding:"omitempty,max=100"`
	Page     int            `form:"page" binding:"omitempty,min=1"`
	PageSize int            `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListResponse 分页结果
type ListResponse struct {
	Items    []userModel.User `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// OAuthIdentity 外部身份提供方返回的信息
type OAuthIdentity struct {
	Provider userModel.Provider
	Subject  string
	Email    string
	FullName string
	Verified bool
}
