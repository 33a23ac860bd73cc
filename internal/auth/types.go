package auth

import (
	userModel "terminal-terrace/testmaker/internal/model/user"
)

// TokenRequest 用户名或邮箱加密码，支持表单和 JSON
type TokenRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// GoogleLoginRequest 前端拿到的 Google id token
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// TokenResponse 登录成功后返回的访问令牌
type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	User        *userModel.User `json:"user"`
}
