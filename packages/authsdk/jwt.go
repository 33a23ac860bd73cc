package authsdk

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrNoToken      = errors.New("no token provided")
)

// Claims JWT 自定义声明，sub 为用户名
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserContext 用户上下文信息
type UserContext struct {
	UserID   uint
	Username string
	Role     string
}

// Issuer 签发与校验 HS256 令牌
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type IssuerOption func(*Issuer)

func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = name
	}
}

// WithClock 测试中固定时间
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) *Issuer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "testmaker",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL 令牌有效期
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Mint 签发访问令牌
func (i *Issuer) Mint(userID uint, username, role string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    i.issuer,
			ID:        strconv.FormatInt(now.UnixNano(), 36),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse 解析并验证令牌
func (i *Issuer) Parse(tokenString string) (*UserContext, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &UserContext{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}
