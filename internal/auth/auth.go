package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sara-ai/checkin-service/internal/config"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	SSOAuthentication   string = "sso"
	LocalAuthentication string = "local"
	NoneAuthentication  string = "none"
)

func NewAuthenticator(ctx context.Context, authConfig config.Auth) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.AuthenticationType)

	switch authConfig.AuthenticationType {
	case SSOAuthentication:
		return NewSSOAuthenticator(ctx, authConfig.JwkCertURL)
	case LocalAuthentication:
		return NewLocalAuthenticator(authConfig.LocalSecret)
	default:
		return NewNoneAuthenticator()
	}
}

// tokenFromRequest reads the bearer token of the Authorization header. Browsers
// following a report link cannot set headers, so the token query parameter is
// accepted as well.
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return r.URL.Query().Get("token")
}

type tokenParser interface {
	Authenticate(token string) (User, error)
}

func authenticate(p tokenParser, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := tokenFromRequest(r)
		if accessToken == "" {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := p.Authenticate(accessToken)
		if err != nil {
			zap.S().Named("auth").Debugw("authentication failed", "error", err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := NewTokenContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
