package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"filevault/internal/common/security"
	"filevault/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "access_token"

func newIssuer(t *testing.T, opts ...security.TokenOption) *security.TokenIssuer {
	t.Helper()
	issuer, err := security.NewTokenIssuer([]byte("middleware-secret"), time.Hour, opts...)
	require.NoError(t, err)
	return issuer
}

// protected echoes the claims the guard attached.
func protected(t *testing.T, issuer *security.TokenIssuer) http.Handler {
	t.Helper()
	return Authenticator(issuer, cookieName)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		json.NewEncoder(w).Encode(claims)
	}))
}

func assertUnauthorized(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestAuthenticator_MissingCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	protected(t, newIssuer(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))

	assertUnauthorized(t, rec)
}

func TestAuthenticator_EmptyCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: ""})
	rec := httptest.NewRecorder()
	protected(t, newIssuer(t)).ServeHTTP(rec, req)

	assertUnauthorized(t, rec)
}

func TestAuthenticator_ValidToken(t *testing.T) {
	issuer := newIssuer(t)
	issued := model.SessionClaims{Subject: "u-1", Email: "a@b.com", Role: model.RoleUser}
	token, _, err := issuer.Issue(issued)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	rec := httptest.NewRecorder()
	protected(t, issuer).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u-1","email":"a@b.com","role":"USER"}`, rec.Body.String())
}

func TestAuthenticator_RejectsBadTokensUniformly(t *testing.T) {
	issuer := newIssuer(t)
	claims := model.SessionClaims{Subject: "u-1", Email: "a@b.com", Role: model.RoleUser}

	expired, _, err := newIssuer(t, security.WithClock(func() time.Time { return time.Now().Add(-3 * time.Hour) })).Issue(claims)
	require.NoError(t, err)

	other, err := security.NewTokenIssuer([]byte("someone-else"), time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue(claims)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"forged":    forged,
		"malformed": "definitely.not.ajwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
			req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
			rec := httptest.NewRecorder()
			protected(t, issuer).ServeHTTP(rec, req)

			assertUnauthorized(t, rec)
		})
	}
}

func TestAuthenticator_IgnoresOtherCarriers(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue(model.SessionClaims{Subject: "u-1", Email: "a@b.com", Role: model.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	rec := httptest.NewRecorder()
	protected(t, issuer).ServeHTTP(rec, req)

	assertUnauthorized(t, rec)
}

func TestClaimsFromContext_Absent(t *testing.T) {
	_, ok := ClaimsFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
