package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"filevault/internal/common"
	"filevault/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClaims = model.SessionClaims{
	Subject: "6f1c6c3e-1b7a-4d1e-9a57-0d8e2f7f4a10",
	Email:   "a@b.com",
	Role:    model.RoleUser,
}

func newTestIssuer(t *testing.T, secret string, opts ...TokenOption) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer([]byte(secret), time.Hour, opts...)
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(nil, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewTokenIssuer([]byte{}, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("secret"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t, "super-secret")

	before := time.Now().Truncate(time.Second)
	token, expiresAt, err := issuer.Issue(testClaims)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, before.Add(time.Hour), expiresAt, 2*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testClaims.Subject, claims.Subject)
	assert.Equal(t, testClaims.Email, claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.True(t, claims.ExpiresAt.Equal(expiresAt))
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestVerify_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := newTestIssuer(t, "super-secret", WithClock(func() time.Time { return past }))

	token, _, err := issuer.Issue(testClaims)
	require.NoError(t, err)

	_, err = newTestIssuer(t, "super-secret").Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestVerify_ExpiredByIssuerClock(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, "super-secret", WithClock(func() time.Time { return now }))

	token, _, err := issuer.Issue(testClaims)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _, err := newTestIssuer(t, "right-secret").Issue(testClaims)
	require.NoError(t, err)

	_, err = newTestIssuer(t, "wrong-secret").Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestVerify_TamperedPayload(t *testing.T) {
	issuer := newTestIssuer(t, "super-secret")
	token, _, err := issuer.Issue(testClaims)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["role"] = string(model.RoleAdmin)
	forged, err := json.Marshal(claims)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = issuer.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	issuer := newTestIssuer(t, "super-secret")

	for _, token := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := issuer.Verify(token)
		require.Error(t, err, "token %q", token)
		assert.True(t, errors.Is(err, common.ErrUnauthorized), "token %q: %v", token, err)
	}
}

func TestVerify_MissingClaims(t *testing.T) {
	issuer := newTestIssuer(t, "super-secret")

	token, _, err := issuer.Issue(model.SessionClaims{Subject: "u1", Role: model.RoleUser})
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	token, _, err = issuer.Issue(model.SessionClaims{Subject: "u1", Email: "a@b.com", Role: "ROOT"})
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
