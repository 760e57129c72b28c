package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"pawfect/internal/domain"
	"pawfect/internal/domain/models"
)

// VerifierConfig selects the accepted signing keys. At least one must be set.
type VerifierConfig struct {
	// Secret enables HS256 tokens signed with a shared secret.
	Secret string
	// JWKSURL enables RS256/ES256 tokens signed by an external identity provider.
	JWKSURL string
}

// TokenVerifier implements JWTVerifier for shared-secret and JWKS-signed tokens.
type TokenVerifier struct {
	secret  []byte
	jwks    keyfunc.Keyfunc
	cancel  context.CancelFunc
	methods []string
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier. When a JWKS URL is given the key set is
// fetched now and refreshed in the background until Close is called.
func NewJWTVerifier(cfg VerifierConfig, logger *slog.Logger) (JWTVerifier, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("JWT secret or JWKS URL is required")
	}

	v := &TokenVerifier{logger: logger}

	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
		v.methods = append(v.methods, jwt.SigningMethodHS256.Alg())
	}

	if cfg.JWKSURL != "" {
		ctx, cancel := context.WithCancel(context.Background())
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		v.jwks = jwks
		v.cancel = cancel
		// Prevent algorithm confusion attacks - asymmetric keys only from the JWKS
		v.methods = append(v.methods, jwt.SigningMethodRS256.Alg(), jwt.SigningMethodES256.Alg())
		logger.Info("JWKS key set loaded", "jwks_url", cfg.JWKSURL)
	}

	logger.Info("JWT verifier initialized", "algorithms", v.methods)
	return v, nil
}

// VerifyToken validates a JWT token and extracts its claims.
func (v *TokenVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, v.keyFunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		v.logger.Warn("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// keyFunc picks the verification key by signing method family.
func (v *TokenVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, errors.New("shared-secret tokens are not accepted")
		}
		return v.secret, nil
	default:
		if v.jwks == nil {
			return nil, errors.New("asymmetric tokens are not accepted")
		}
		return v.jwks.Keyfunc(token)
	}
}

// Close stops the JWKS background refresh, if any.
func (v *TokenVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
