package auth

import (
	"context"

	"github.com/coursehub/auth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores verified claims in the request context
// for handlers that only see a context.Context.
func ContextEnricherAdapter(c context.Context, claims jwtware.Claims) context.Context {
	authClaims, ok := claims.(*JWTClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

// verifierValidator exposes a TokenVerifier through the jwtware interface
func verifierValidator(v TokenVerifier) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.Claims, error) {
		claims, err := v.Verify(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}
