package auth

import (
	"context"
	"fmt"
	"net/http"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// SSOAuthenticator validates RS256 tokens against the identity provider's JWKS.
type SSOAuthenticator struct {
	keyFn func(t *jwt.Token) (any, error)
}

func NewSSOAuthenticatorWithKeyFn(keyFn func(t *jwt.Token) (any, error)) (*SSOAuthenticator, error) {
	return &SSOAuthenticator{keyFn: keyFn}, nil
}

// NewSSOAuthenticator fetches the key set once and keeps refreshing it until
// ctx is done.
func NewSSOAuthenticator(ctx context.Context, jwkCertUrl string) (*SSOAuthenticator, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwkCertUrl})
	if err != nil {
		return nil, fmt.Errorf("failed to get sso public keys: %w", err)
	}

	return &SSOAuthenticator{keyFn: k.Keyfunc}, nil
}

func (s *SSOAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}), jwt.WithIssuedAt(), jwt.WithExpirationRequired())
	t, err := parser.Parse(token, s.keyFn)
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}

	if !t.Valid {
		return User{}, fmt.Errorf("failed to parse or validate token")
	}

	return userFromClaims(t)
}

func (s *SSOAuthenticator) Authenticator(next http.Handler) http.Handler {
	return authenticate(s, next)
}
