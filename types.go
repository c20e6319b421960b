package auth

import (
	"context"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Email() string
	FirstName() string
	LastName() string
	Avatar() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenTTL() time.Duration
	GetIssuer() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetBcryptCost() int
	GetAllowedRoles() []string
	GetUseHashid() bool
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, payload LoginPayload) (*LoginResult, error)
	ClaimsFromToken(token string) (*JWTClaims, error)
	UserFromClaims(ctx context.Context, claims *JWTClaims) (*User, error)
}

// Registrar creates new accounts
type Registrar interface {
	Execute(ctx context.Context, msg RegisterUserMessage) (*PublicUser, error)
}
