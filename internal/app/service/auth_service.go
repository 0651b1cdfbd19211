package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"filevault/internal/common"
	"filevault/internal/domain/model"
	"filevault/internal/domain/repository"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/rs/zerolog"
)

var (
	ErrEmailInUse         = common.NewPublicError(common.ErrBadRequest, "Email already in use")
	ErrRegistrationFailed = common.NewPublicError(common.ErrInternalServer, "Failed to register user")
	ErrInvalidCredentials = common.NewPublicError(common.ErrBadRequest, "Invalid credentials")
	ErrTokenGeneration    = common.NewPublicError(common.ErrInternalServer, "Failed to generate token")
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// fallbackDummyDigest is a well-formed cost-10 bcrypt digest that matches no
// password. It stands in when the dummy digest cannot be computed at startup.
const fallbackDummyDigest = "$2a$10$Qm7fXc2LpR9vTz4WkH8yNeJd3sVq8PbM1xZr6TgK0wYc5nLh2FaUe"

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	Issue(claims model.SessionClaims) (string, time.Time, error)
	TTL() time.Duration
}

type AuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer

	// compared against when the email is unknown so both login failures
	// cost one hash verification
	dummyDigest string
}

func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	dummy, err := hasher.Hash("not-a-real-password-0")
	if err != nil || dummy == "" {
		dummy = fallbackDummyDigest
	}
	return &AuthService{
		userRepo:    userRepo,
		hasher:      hasher,
		tokens:      tokens,
		dummyDigest: dummy,
	}
}

// RegisterRequest has no role field: registration always creates a USER.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("Email is required"), validation.Length(0, 255), is.Email.Error("Invalid email format")),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 0).Error("Password must be at least 8 characters"),
			validation.By(maxBytes(maxPasswordBytes)),
			validation.Match(hasLower).Error("Password must have uppercase, lowercase, and number"),
			validation.Match(hasUpper).Error("Password must have uppercase, lowercase, and number"),
			validation.Match(hasDigit).Error("Password must have uppercase, lowercase, and number"),
		),
		validation.Field(&r.FirstName, validation.Required.Error("First name is required"), validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Required.Error("Last name is required"), validation.Length(0, 100)),
	)
}

func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes", n)
		}
		return nil
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	// TTL is the configured token lifetime, for the cookie's Max-Age.
	TTL time.Duration
}

// Register creates a USER account. The email pre-check only gives an early
// answer; the store's unique constraint decides races between concurrent
// registrations.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.PublicUser, error) {
	log := zerolog.Ctx(ctx)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrEmailInUse
	case !errors.Is(err, common.ErrNotFound):
		log.Error().Err(err).Msg("register: user lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("register: password hashing failed")
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	user, err := s.userRepo.Create(ctx, &model.User{
		Email:          req.Email,
		HashedPassword: digest,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           model.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, ErrEmailInUse
		}
		log.Error().Err(err).Msg("register: user insert failed")
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	log.Info().Str("user_id", user.ID).Msg("user registered")
	return user.Public(), nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password return the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	log := zerolog.Ctx(ctx)

	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(req.Password, s.dummyDigest)
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("login: user lookup failed")
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(model.SessionClaims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("login: token signing failed")
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, TTL: s.tokens.TTL()}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("current user lookup failed")
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user.Public(), nil
}

type validatable interface {
	Validate() error
}

// validateRequest turns ozzo field errors into a client-facing validation
// error; anything else from Validate is an internal fault.
func validateRequest(v validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return common.NewValidationError(fieldErrs)
	}
	return fmt.Errorf("validate request: %w", err)
}
