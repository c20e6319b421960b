package auth

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeEmailExists           = "EMAIL_EXISTS"
	TextCodeUserNotFound          = "USER_NOT_FOUND"
	TextCodeTokenInvalidSignature = "TOKEN_INVALID_SIGNATURE"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(goerrors.TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(goerrors.TextCodeInvalidCredentials)

// ErrDuplicateEmail is returned when registering an email that is already taken
var ErrDuplicateEmail = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeEmailExists)

// ErrUserNotFound is returned when no record matches the login email
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrIncorrectPassword is returned when the login password does not match
var ErrIncorrectPassword = goerrors.New("incorrect password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(goerrors.TextCodeInvalidCredentials)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(goerrors.TextCodeSessionNotFound)

// ErrUnableToFindSession is the error when the request has no verified claims
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(goerrors.TextCodeSessionNotFound)

// ErrTokenInvalidSignature marks a token whose signature does not verify
var ErrTokenInvalidSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalidSignature)

// ErrTokenExpired marks a token used after its exp claim
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(goerrors.TextCodeTokenExpired)

// ErrTokenMalformed marks a token that cannot be decoded or lacks required claims
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(goerrors.TextCodeTokenMalformed)

// AuthErrorKind is the text code that tells why a bearer token was
// rejected. It is meant for logs; HTTP callers answer every kind with
// a plain 401.
type AuthErrorKind string

const (
	InvalidSignature AuthErrorKind = TextCodeTokenInvalidSignature
	Expired          AuthErrorKind = goerrors.TextCodeTokenExpired
	Malformed        AuthErrorKind = goerrors.TextCodeTokenMalformed
)

func kindSentinel(kind AuthErrorKind) *goerrors.Error {
	switch kind {
	case InvalidSignature:
		return ErrTokenInvalidSignature
	case Expired:
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}

// NewAuthError builds a token rejection. The kind sentinel stays in the
// chain next to cause so errors.Is matches both.
func NewAuthError(kind AuthErrorKind, cause error) *goerrors.Error {
	sentinel := kindSentinel(kind)

	var source error = sentinel
	if cause != nil {
		source = fmt.Errorf("%w: %w", sentinel, cause)
	}

	err := goerrors.New(sentinel.Message, goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(sentinel.TextCode)
	err.Source = source
	return err
}

// AuthErrorKindOf returns the token rejection kind of err
func AuthErrorKindOf(err error) (AuthErrorKind, bool) {
	for _, kind := range []AuthErrorKind{InvalidSignature, Expired, Malformed} {
		if goerrors.Is(err, kindSentinel(kind)) {
			return kind, true
		}
	}
	return "", false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenExpired)
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenMalformed)
}

// internalError wraps a store, hashing or signing failure
func internalError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(goerrors.CodeInternal)
}
