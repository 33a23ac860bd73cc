package user

import "time"

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Provider 身份来源
type Provider string

const (
	ProviderLocal     Provider = "LOCAL"
	ProviderGoogle    Provider = "GOOGLE"
	ProviderGithub    Provider = "GITHUB"
	ProviderMicrosoft Provider = "MICROSOFT"
)

// User 用户表
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username          *string    `gorm:"type:varchar(50);uniqueIndex" json:"username"`
	FullName          *string    `gorm:"type:varchar(255)" json:"full_name"`
	HashedPassword    *string    `gorm:"type:varchar(255)" json:"-"`
	Role              Role       `gorm:"type:varchar(20);not null;default:'STUDENT';index" json:"role"`
	OAuthProvider     Provider   `gorm:"column:oauth_provider;type:varchar(20);not null;default:'LOCAL';uniqueIndex:idx_users_oauth" json:"oauth_provider"`
	OAuthID           *string    `gorm:"column:oauth_id;type:varchar(255);uniqueIndex:idx_users_oauth" json:"-"`
	OAuthAccessToken  *string    `gorm:"column:oauth_access_token;type:text" json:"-"`
	OAuthRefreshToken *string    `gorm:"column:oauth_refresh_token;type:text" json:"-"`
	OAuthExpiresAt    *time.Time `gorm:"column:oauth_expires_at" json:"-"`
	IsActive          bool       `gorm:"not null" json:"is_active"`
	IsVerified        bool       `gorm:"not null" json:"is_verified"`
	IsEmailVerified   bool       `gorm:"not null" json:"is_email_verified"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLoginAt       *time.Time `json:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}

// HasLocalPassword 外部身份登录的账号没有本地密码
func (u *User) HasLocalPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}

// DisplayName 用户名优先，其次全名，最后邮箱
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

// IsAdmin 全局管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
