package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LoginPayload is what the login flow needs from a request
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	Validate() error
}

// LoginResult is returned on a successful login
type LoginResult struct {
	// Token is ready to be used as an Authorization header value
	Token     string
	RawToken  string
	ExpiresAt time.Time
	User      *User
}

type Auther struct {
	users        Users
	hasher       PasswordHasher
	tokenService *TokenService
	tokenTTL     time.Duration
	authScheme   string
	logger       Logger
	activitySink ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokenService *TokenService, opts Config) *Auther {
	scheme := opts.GetAuthScheme()
	if scheme == "" {
		scheme = "Bearer"
	}

	return &Auther{
		users:        users,
		hasher:       NewBcryptHasher(opts.GetBcryptCost()),
		tokenService: tokenService,
		tokenTTL:     opts.GetTokenTTL(),
		authScheme:   scheme,
		logger:       normalizeLogger(nil),
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokenService
}

// Login verifies the credentials in payload and issues a bearer token
func (s *Auther) Login(ctx context.Context, payload LoginPayload) (*LoginResult, error) {
	result, err := s.login(ctx, payload)
	if err != nil {
		userID := ""
		if result != nil && result.User != nil {
			userID = result.User.ID.String()
		}
		recordActivity(ctx, s.activitySink, s.logger, ActivityEventLoginFailure, userID, map[string]any{
			"identifier": payload.GetIdentifier(),
			"error":      err.Error(),
		})
		return nil, err
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEventLoginSuccess, result.User.ID.String(), map[string]any{
		"identifier": payload.GetIdentifier(),
	})

	return result, nil
}

// login returns a partial result next to some errors so failures can be
// attributed to a user
func (s *Auther) login(ctx context.Context, payload LoginPayload) (*LoginResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, payload.GetIdentifier())
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("login user lookup failed", "error", err)
		return nil, internalError(err, "failed to find user")
	}

	partial := &LoginResult{User: user}

	if err := s.hasher.Compare(payload.GetPassword(), user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			if err := s.users.TrackAttemptedLogin(ctx, user); err != nil {
				s.logger.Warn("failed to track login attempt", "user_id", user.ID.String(), "error", err)
			}
			return partial, ErrIncorrectPassword
		}
		s.logger.Error("login password compare failed", "user_id", user.ID.String(), "error", err)
		return partial, err
	}

	claims := ClaimsFromIdentity(NewIdentityFromUser(user))
	raw, expiresAt, err := s.tokenService.Mint(claims, s.tokenTTL)
	if err != nil {
		return partial, err
	}

	if err := s.users.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("failed to track successful login", "user_id", user.ID.String(), "error", err)
	}

	return &LoginResult{
		Token:     s.authScheme + " " + raw,
		RawToken:  raw,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// ClaimsFromToken verifies a raw token
func (s *Auther) ClaimsFromToken(raw string) (*JWTClaims, error) {
	claims, err := s.tokenService.Verify(raw)
	if err != nil {
		kind, _ := AuthErrorKindOf(err)
		s.logger.Info("token rejected", "kind", string(kind), "error", err)
		return nil, err
	}
	return claims, nil
}

// UserFromClaims loads the user a verified token was issued for
func (s *Auther) UserFromClaims(ctx context.Context, claims *JWTClaims) (*User, error) {
	if claims == nil {
		return nil, ErrUnableToFindSession
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrIdentityNotFound
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("user from claims lookup failed", "user_id", id.String(), "error", err)
		return nil, internalError(err, "failed to find user")
	}

	return user, nil
}
