package middleware

import (
	"context"
	"errors"
	"net/http"

	"filevault/internal/common"
	"filevault/internal/common/security"
	"filevault/internal/domain/model"

	"github.com/rs/zerolog"
)

type contextKey string

const claimsCtxKey contextKey = "sessionClaims"

type TokenVerifier interface {
	Verify(token string) (*model.SessionClaims, error)
}

// Authenticator rejects requests without a valid session token in the
// cookieName cookie and stores the verified claims in the request context.
// Every rejection gets the same 401 body; the reason is only logged.
func Authenticator(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := zerolog.Ctx(r.Context())

			token := TokenFromCookie(r, cookieName)
			if token == "" {
				log.Debug().Str("reason", "missing").Msg("request not authenticated")
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, security.ErrTokenExpired) {
					reason = "expired"
				}
				log.Debug().Err(err).Str("reason", reason).Msg("request not authenticated")
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TokenFromCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func WithClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext returns the claims attached by Authenticator.
func ClaimsFromContext(ctx context.Context) (*model.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsCtxKey).(*model.SessionClaims)
	return claims, ok && claims != nil
}
