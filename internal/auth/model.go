package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type tokenKeyType struct{}

var (
	tokenKey tokenKeyType
)

const adminRole = "admin"

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(tokenKey)
	if val == nil {
		return User{}, false
	}
	user, ok := val.(User)
	return user, ok
}

func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		zap.S().Named("auth").Panic("failed to find user in context")
	}
	return user
}

func NewTokenContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, tokenKey, u)
}

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Admin     bool
	Token     *jwt.Token
}

func (u User) IsAdmin() bool {
	return u.Admin
}

// userFromClaims maps identity provider claims. sub and email are mandatory.
// Admins are recognized by a "role" claim or a "roles" list containing admin.
func userFromClaims(t *jwt.Token) (User, error) {
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("failed to parse jwt token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return User{}, errors.New("token has no subject")
	}

	email, _ := claims["email"].(string)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, errors.New("token has no valid email")
	}

	user := User{
		ID:    sub,
		Email: email,
		Token: t,
	}
	user.FirstName, _ = claims["given_name"].(string)
	user.LastName, _ = claims["family_name"].(string)

	if role, _ := claims["role"].(string); role == adminRole {
		user.Admin = true
	}
	if roles, ok := claims["roles"].([]any); ok {
		for _, r := range roles {
			if r == adminRole {
				user.Admin = true
			}
		}
	}

	return user, nil
}
