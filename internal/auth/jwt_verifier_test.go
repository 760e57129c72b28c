package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect/internal/domain"
	"pawfect/internal/domain/models"
)

const testSecret = "unit-test-secret-with-enough-entropy"

func newTestVerifier(t *testing.T) JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(VerifierConfig{Secret: testSecret}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims models.AccessClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestVerifyToken_Valid(t *testing.T) {
	v := newTestVerifier(t)

	tok, err := IssueToken(testSecret, "alice@example.com", "alice@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.GetUserID())
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyToken_Rejected(t *testing.T) {
	v := newTestVerifier(t)
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "garbage",
			token: "not-a-jwt",
		},
		{
			name: "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte("another-secret"), models.AccessClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
			}),
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), models.AccessClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
			}),
		},
		{
			name: "no expiry",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), models.AccessClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
			}),
		},
		{
			name: "no subject",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), models.AccessClaims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
			}),
		},
		{
			name: "disallowed algorithm",
			token: sign(t, jwt.SigningMethodHS512, []byte(testSecret), models.AccessClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.VerifyToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestNewJWTVerifier_RequiresKeySource(t *testing.T) {
	_, err := NewJWTVerifier(VerifierConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestIssueToken_RequiresInputs(t *testing.T) {
	_, err := IssueToken("", "alice", "", time.Hour)
	assert.Error(t, err)
	_, err = IssueToken(testSecret, "", "", time.Hour)
	assert.Error(t, err)
}
