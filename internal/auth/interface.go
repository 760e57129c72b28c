package auth

import "pawfect/internal/domain/models"

// JWTVerifier validates bearer tokens and yields the caller's claims.
// The middleware depends only on this interface, so tests can swap in a stub.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has no subject.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases any resources held by the verifier (e.g. the JWKS refresh goroutine).
	Close() error
}
