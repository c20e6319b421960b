package auth_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/auth"
	"github.com/coursehub/auth/middleware/jwtware"
)

func loginToken(t *testing.T, auther *auth.Auther, email string) string {
	t.Helper()
	result, err := auther.Login(context.Background(), auth.LoginRequest{Email: email, Password: "secret123"})
	require.NoError(t, err)
	return result.Token
}

func TestRouteAuthenticatorStoresUserAndClaims(t *testing.T) {
	db := setupDB(t)
	users := auth.NewUsersRepository(db)
	user := seedUser(t, users, "ada@example.com", "secret123", auth.RoleInstructor)
	auther, _ := newAuther(t, users)
	guard := auth.NewHTTPAuthenticator(auther, testConfig{})

	var listenerUser string
	listener := func(c *fiber.Ctx, claims jwtware.Claims) error {
		// runs after the user has been resolved
		if u, ok := auth.CurrentUser(c); ok {
			listenerUser = u.Email
		}
		return nil
	}

	app := fiber.New()
	app.Get("/me", guard.ProtectedRoute(listener), func(c *fiber.Ctx) error {
		current, ok := auth.CurrentUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		claims, ok := auth.GetFiberClaims(c, "user")
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		ctxClaims, ok := auth.GetClaims(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		fromCtx, ok := auth.FromContext(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		assert.Equal(t, current.ID, fromCtx.ID)
		assert.Equal(t, claims.UserID(), ctxClaims.UserID())
		return c.SendString(current.Email + "|" + claims.Role())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", loginToken(t, auther, user.Email))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com|instructor", body)
	assert.Equal(t, "ada@example.com", listenerUser)
}

func TestRouteAuthenticatorRequireRole(t *testing.T) {
	db := setupDB(t)
	users := auth.NewUsersRepository(db)
	seedUser(t, users, "student@example.com", "secret123", auth.RoleStudent)
	seedUser(t, users, "instructor@example.com", "secret123", auth.RoleInstructor)
	auther, _ := newAuther(t, users)
	guard := auth.NewHTTPAuthenticator(auther, testConfig{})

	app := fiber.New()
	app.Get("/grades", guard.RequireRole(auth.RoleInstructor), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		email  string
		status int
	}{
		{email: "student@example.com", status: http.StatusUnauthorized},
		{email: "instructor@example.com", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/grades", nil)
			req.Header.Set("Authorization", loginToken(t, auther, tt.email))
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRouteAuthenticatorCustomVerifier(t *testing.T) {
	db := setupDB(t)
	users := auth.NewUsersRepository(db)
	user := seedUser(t, users, "ada@example.com", "secret123", auth.RoleStudent)
	auther, _ := newAuther(t, users)

	guard := auth.NewHTTPAuthenticator(auther, testConfig{}).
		WithTokenVerifier(auth.TokenVerifierFunc(func(raw string) (*auth.JWTClaims, error) {
			if raw != "static-test-token" {
				return nil, auth.NewAuthError(auth.Malformed, nil)
			}
			return &auth.JWTClaims{UID: user.ID.String(), UserRole: user.Role}, nil
		}))

	app := fiber.New()
	app.Get("/me", guard.ProtectedRoute(), func(c *fiber.Ctx) error {
		u, ok := auth.CurrentUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(u.Email)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer static-test-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", readBody(t, resp))
}

func TestRouteAuthenticatorStoreFailure(t *testing.T) {
	id := uuid.New()
	users := &MockUsers{}
	users.On("GetByID", mock.Anything, id).Return(nil, errors.New("db down"))

	auther, _ := newAuther(t, users)
	logger := &recordingLogger{}
	guard := auth.NewHTTPAuthenticator(auther, testConfig{}).WithLogger(logger)

	app := fiber.New()
	app.Get("/me", guard.ProtectedRoute(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	token, err := newTokenService(t).Issue(&auth.JWTClaims{UID: id.String(), UserRole: auth.RoleStudent}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Authentication failed"}`, readBody(t, resp))
	assert.Contains(t, strings.Join(logger.Entries(), "\n"), "db down")
	users.AssertExpectations(t)
}

func TestContextHelpersWithoutValues(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	_, ok = auth.GetClaims(context.Background())
	assert.False(t, ok)

	ctx := auth.WithContext(context.Background(), &auth.User{Email: "ada@example.com"})
	user, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user.Email)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
