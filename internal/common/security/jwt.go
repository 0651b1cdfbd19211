package security

import (
	"errors"
	"fmt"
	"time"

	"filevault/internal/common"
	"filevault/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = time.Hour

var (
	ErrMissingSecret = errors.New("jwt signing secret is not configured")

	ErrTokenExpired = fmt.Errorf("token expired: %w", common.ErrUnauthorized)
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", common.ErrUnauthorized)
)

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock replaces time.Now for issuing and for the expiry check.
func WithClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) { i.now = now }
}

func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	i := &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs claims with a fresh issued-at and an expiry of issued-at + TTL.
func (i *TokenIssuer) Issue(c model.SessionClaims) (string, time.Time, error) {
	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub":   c.Subject,
		"email": c.Email,
		"role":  string(c.Role),
	}
	jwtauth.SetIssuedAt(claims, issuedAt)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err := i.auth.Encode(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry and rebuilds the claims. Every failure
// wraps common.ErrUnauthorized; ErrTokenExpired and ErrTokenInvalid tell the
// two apart for logging.
func (i *TokenIssuer) Verify(tokenString string) (*model.SessionClaims, error) {
	token, err := jwtauth.VerifyToken(i.auth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	expiresAt := token.Expiration()
	if expiresAt.IsZero() {
		return nil, fmt.Errorf("%w: exp claim is missing", ErrTokenInvalid)
	}
	if !i.now().Before(expiresAt) {
		return nil, ErrTokenExpired
	}

	subject := token.Subject()
	if subject == "" {
		return nil, fmt.Errorf("%w: sub claim is missing", ErrTokenInvalid)
	}

	private := jwt.MapClaims(token.PrivateClaims())
	email, err := stringClaim(private, "email")
	if err != nil {
		return nil, err
	}
	role, err := stringClaim(private, "role")
	if err != nil {
		return nil, err
	}
	if !model.Role(role).Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, role)
	}

	return &model.SessionClaims{
		Subject:   subject,
		Email:     email,
		Role:      model.Role(role),
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: expiresAt,
	}, nil
}

func stringClaim(claims jwt.MapClaims, name string) (string, error) {
	v, ok := claims[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s claim is missing or not a string", ErrTokenInvalid, name)
	}
	return v, nil
}
