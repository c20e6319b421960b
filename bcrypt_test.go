package auth_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/auth"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
		},
		{
			name:     "Unicode password",
			password: "pässwörd-ß",
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  auth.ErrNoEmptyString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = auth.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("secret123")
	require.NoError(t, err)
	second, err := hasher.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, hasher.Compare("secret123", first))
	assert.NoError(t, hasher.Compare("secret123", second))
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name         string
		password     string
		hash         string
		wantMismatch bool
		wantHashErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
		},
		{
			name:         "Wrong password",
			password:     "wrongPassword",
			hash:         hash,
			wantMismatch: true,
		},
		{
			name:        "Invalid hash",
			password:    password,
			hash:        "invalidhash",
			wantHashErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ComparePasswordAndHash(tt.password, tt.hash)

			switch {
			case tt.wantMismatch:
				assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
			case tt.wantHashErr:
				assert.True(t, goerrors.IsInternal(err))
				assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewBcryptHasherCost(t *testing.T) {
	hash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("secret123")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	// out of range falls back to the build default
	hash, err = auth.NewBcryptHasher(99).Hash("secret123")
	require.NoError(t, err)
	_, err = bcrypt.Cost([]byte(hash))
	assert.NoError(t, err)
}
