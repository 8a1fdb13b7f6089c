package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the API puts in its access tokens
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseToken decodes the token's claims without verifying the signature.
// The client never holds the signing key; expiry is only read for display
// and guard decisions, the server stays the authority.
func ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}
