package auth_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	"github.com/coursehub/auth"
)

func TestAuthErrorMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		kind     auth.AuthErrorKind
		sentinel error
	}{
		{kind: auth.InvalidSignature, sentinel: auth.ErrTokenInvalidSignature},
		{kind: auth.Expired, sentinel: auth.ErrTokenExpired},
		{kind: auth.Malformed, sentinel: auth.ErrTokenMalformed},
	}

	cause := errors.New("cause")
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", auth.NewAuthError(tt.kind, cause))

			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, cause)

			kind, ok := auth.AuthErrorKindOf(err)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)

			assert.Equal(t, tt.kind == auth.Expired, auth.IsTokenExpiredError(err))
			assert.Equal(t, tt.kind == auth.Malformed, auth.IsMalformedError(err))
		})
	}
}

func TestAuthErrorHelpersOnOtherErrors(t *testing.T) {
	assert.False(t, auth.IsTokenExpiredError(nil))
	assert.False(t, auth.IsMalformedError(nil))

	_, ok := auth.AuthErrorKindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestAuthErrorCarriesCategoryAndTextCode(t *testing.T) {
	err := auth.NewAuthError(auth.Expired, nil)

	assert.Equal(t, goerrors.CategoryAuth, err.Category)
	assert.Equal(t, goerrors.CodeUnauthorized, err.Code)
	assert.Equal(t, string(auth.Expired), err.TextCode)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.NotErrorIs(t, err, auth.ErrTokenMalformed)
}

func TestSentinelCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		code     int
	}{
		{name: "duplicate email", err: auth.ErrDuplicateEmail, category: goerrors.CategoryConflict, code: goerrors.CodeBadRequest},
		{name: "user not found", err: auth.ErrUserNotFound, category: goerrors.CategoryNotFound, code: goerrors.CodeNotFound},
		{name: "incorrect password", err: auth.ErrIncorrectPassword, category: goerrors.CategoryAuth, code: goerrors.CodeBadRequest},
		{name: "empty password", err: auth.ErrNoEmptyString, category: goerrors.CategoryValidation, code: goerrors.CodeBadRequest},
		{name: "identity not found", err: auth.ErrIdentityNotFound, category: goerrors.CategoryAuth, code: goerrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.TextCode)
		})
	}
}
