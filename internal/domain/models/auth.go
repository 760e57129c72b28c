package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the JWT claim set accepted by the API.
// The subject is the opaque owner identity used to scope every conversation query.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}
