package auth

import (
	"errors"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/user"
)

var ErrGoogleNotConfigured = errors.New("google login is not configured")

// IdentityVerifier 校验第三方令牌并返回身份
type IdentityVerifier interface {
	Verify(idToken string) (user.OAuthIdentity, error)
}

// GoogleVerifier 校验签名、aud 和过期时间后解出声明
type GoogleVerifier struct {
	clientID string
	verifier googleAuthIDTokenVerifier.Verifier
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (g *GoogleVerifier) Verify(idToken string) (user.OAuthIdentity, error) {
	if g.clientID == "" {
		return user.OAuthIdentity{}, ErrGoogleNotConfigured
	}
	if err := g.verifier.VerifyIDToken(idToken, []string{g.clientID}); err != nil {
		return user.OAuthIdentity{}, err
	}

	claims, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return user.OAuthIdentity{}, err
	}
	return user.OAuthIdentity{
		Provider: userModel.ProviderGoogle,
		Subject:  claims.Sub,
		Email:    claims.Email,
		FullName: claims.Name,
		Verified: claims.EmailVerified,
	}, nil
}
