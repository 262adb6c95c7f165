// AngelaMos | 2026
// jwt_test.go

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/auth"
	"github.com/carterperez-dev/episode-ledger/internal/config"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
)

func keyPair(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	private := filepath.Join(dir, "private.pem")
	public := filepath.Join(dir, "public.pem")
	require.NoError(t, auth.GenerateKeyPair(private, public))
	return private, public
}

func jwtConfig(private, public string) config.JWTConfig {
	return config.JWTConfig{
		PrivateKeyPath:    private,
		PublicKeyPath:     public,
		AccessTokenExpire: time.Minute,
		Issuer:            "episode-ledger",
		Audience:          "episode-ledger-api",
	}
}

func TestRoundTrip(t *testing.T) {
	private, public := keyPair(t)
	m, err := auth.NewJWTManager(jwtConfig(private, public))
	require.NoError(t, err)
	require.True(t, m.CanSign())

	token, err := m.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1", Role: "admin"}, 0)
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyOnly(t *testing.T) {
	private, public := keyPair(t)

	signer, err := auth.NewJWTManager(jwtConfig(private, public))
	require.NoError(t, err)
	token, err := signer.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1", Role: "user"}, 0)
	require.NoError(t, err)

	verifier, err := auth.NewJWTManager(jwtConfig(filepath.Join(t.TempDir(), "absent.pem"), public))
	require.NoError(t, err)
	assert.False(t, verifier.CanSign())
	assert.Equal(t, signer.GetKeyID(), verifier.GetKeyID())

	_, err = verifier.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1"}, 0)
	assert.ErrorIs(t, err, auth.ErrNoSigningKey)

	claims, err := verifier.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRejectsForeignAndMalformedTokens(t *testing.T) {
	private, public := keyPair(t)
	m, err := auth.NewJWTManager(jwtConfig(private, public))
	require.NoError(t, err)

	otherPrivate, otherPublic := keyPair(t)
	other, err := auth.NewJWTManager(jwtConfig(otherPrivate, otherPublic))
	require.NoError(t, err)
	foreign, err := other.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1", Role: "user"}, 0)
	require.NoError(t, err)

	wrongAudience := jwtConfig(private, public)
	wrongAudience.Audience = "someone-else"
	elsewhere, err := auth.NewJWTManager(wrongAudience)
	require.NoError(t, err)
	misdirected, err := elsewhere.CreateAccessToken(middleware.AccessTokenClaims{UserID: "u1", Role: "user"}, 0)
	require.NoError(t, err)

	for _, token := range []string{foreign, misdirected, "not.a.jwt", ""} {
		_, err := m.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	}
}

func TestJWKSHandler(t *testing.T) {
	private, public := keyPair(t)
	m, err := auth.NewJWTManager(jwtConfig(private, public))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "EC", set.Keys[0]["kty"])
	assert.Equal(t, m.GetKeyID(), set.Keys[0]["kid"])
	assert.NotContains(t, set.Keys[0], "d")
}
