package auth

// TokenVerifier validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenVerifier interface {
	Verify(tokenString string) (*JWTClaims, error)
}

// TokenVerifierFunc adapts a function into a TokenVerifier.
type TokenVerifierFunc func(tokenString string) (*JWTClaims, error)

// Verify satisfies the TokenVerifier interface.
func (f TokenVerifierFunc) Verify(tokenString string) (*JWTClaims, error) {
	if f == nil {
		return nil, NewAuthError(Malformed, ErrUnableToFindSession)
	}
	return f(tokenString)
}
