package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultLocalTokenTTL = 24 * time.Hour

// LocalAuthenticator validates HS256 tokens signed with a shared secret.
type LocalAuthenticator struct {
	secret []byte
}

func NewLocalAuthenticator(secret string) (*LocalAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("local authentication requires a jwt secret")
	}
	return &LocalAuthenticator{secret: []byte(secret)}, nil
}

func (l *LocalAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	t, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}

	return userFromClaims(t)
}

func (l *LocalAuthenticator) Authenticator(next http.Handler) http.Handler {
	return authenticate(l, next)
}

// GenerateLocalToken signs a token the LocalAuthenticator accepts.
func GenerateLocalToken(secret string, user User) (string, error) {
	claims := jwt.MapClaims{
		"sub":         user.ID,
		"email":       user.Email,
		"given_name":  user.FirstName,
		"family_name": user.LastName,
		"iat":         jwt.NewNumericDate(time.Now()),
		"exp":         jwt.NewNumericDate(time.Now().Add(defaultLocalTokenTTL)),
	}
	if user.Admin {
		claims["role"] = adminRole
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
