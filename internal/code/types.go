package code

// Purpose 验证码用途，不同用途的验证码互不通用
type Purpose string

const (
	PurposeVerifyEmail Purpose = "verify-email"
)

type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

type SendCodeResponse struct {
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"` // 秒
}
