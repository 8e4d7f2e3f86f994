package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"veloshop-client/internal/domain"
)

// UserFromToken builds a user record from the identity claims embedded in a
// session credential. Claims are read without signature verification; trust
// decisions stay with Provider.IsAuthenticated.
func UserFromToken(token string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("unable to read token claims: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token carries no subject claim")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	return &domain.User{
		ID:    sub,
		Email: email,
		Name:  name,
		Role:  role,
	}, nil
}
