package auth

import (
	"errors"

	"github.com/coursehub/auth/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// RouteAuthenticator guards fiber routes with bearer tokens
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	verifier         TokenVerifier
	Logger           Logger
	AuthErrorHandler fiber.ErrorHandler
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		auth:     auther,
		cfg:      cfg,
		verifier: TokenVerifierFunc(auther.ClaimsFromToken),
		Logger:   normalizeLogger(nil),
	}
	a.AuthErrorHandler = a.defaultAuthErrHandler
	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = normalizeLogger(logger)
	return a
}

// WithTokenVerifier replaces the verifier backed by the Authenticator
func (a *RouteAuthenticator) WithTokenVerifier(v TokenVerifier) *RouteAuthenticator {
	if v != nil {
		a.verifier = v
	}
	return a
}

// ProtectedRoute returns a handler that only lets through requests with
// a valid token whose user still exists. Extra listeners run after the
// user has been resolved.
func (a *RouteAuthenticator) ProtectedRoute(listeners ...ValidationListener) fiber.Handler {
	cfg := jwtware.Config{
		ErrorHandler:    a.AuthErrorHandler,
		TokenValidator:  verifierValidator(a.verifier),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		ContextEnricher: ContextEnricherAdapter,
	}

	RegisterValidationListeners(&cfg, a.resolveUser)
	RegisterValidationListeners(&cfg, listeners...)

	return jwtware.New(cfg)
}

// RequireRole returns a guard that also demands role
func (a *RouteAuthenticator) RequireRole(role string) fiber.Handler {
	cfg := jwtware.Config{
		ErrorHandler:    a.AuthErrorHandler,
		TokenValidator:  verifierValidator(a.verifier),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		ContextEnricher: ContextEnricherAdapter,
		RequiredRole:    role,
	}
	RegisterValidationListeners(&cfg, a.resolveUser)
	return jwtware.New(cfg)
}

func (a *RouteAuthenticator) resolveUser(c *fiber.Ctx, claims jwtware.Claims) error {
	authClaims, ok := claims.(*JWTClaims)
	if !ok || authClaims == nil {
		return ErrUnableToFindSession
	}

	user, err := a.auth.UserFromClaims(c.UserContext(), authClaims)
	if err != nil {
		return err
	}

	c.SetUserContext(WithContext(c.UserContext(), user))
	return nil
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryInternal {
		a.Logger.Error("authentication lookup failed",
			"path", c.Path(),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Authentication failed",
		})
	}

	kind, ok := AuthErrorKindOf(err)
	if !ok && errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		kind = Malformed
	}

	a.Logger.Info("unauthorized request",
		"path", c.Path(),
		"kind", string(kind),
		"error", err,
	)

	return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
}
