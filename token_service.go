package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a login token
const DefaultTokenTTL = time.Hour

// TokenService signs and verifies bearer tokens with a single process
// wide HMAC secret. The key is copied on construction and never changes.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
	newID      func() string
}

var _ TokenVerifier = (*TokenService)(nil)

// TokenServiceOption customizes a TokenService
type TokenServiceOption func(*TokenService)

// WithClock overrides the time source used for iat/exp
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenIDGenerator overrides the jti generator
func WithTokenIDGenerator(fn func() string) TokenServiceOption {
	return func(ts *TokenService) {
		if fn != nil {
			ts.newID = fn
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, logger Logger, opts ...TokenServiceOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, goerrors.New("token service requires a signing key", goerrors.CategoryBadInput)
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenService{
		signingKey: key,
		ttl:        ttl,
		issuer:     issuer,
		logger:     normalizeLogger(logger),
		now:        time.Now,
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// TTL returns the default token lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue signs claims with a lifetime of ttl. A non positive ttl uses
// the service default. iat is truncated to the whole second, so the token
// may expire up to one second before ttl has passed since the call.
func (ts *TokenService) Issue(claims *JWTClaims, ttl time.Duration) (string, error) {
	token, _, err := ts.Mint(claims, ttl)
	return token, err
}

// Mint is Issue that also returns the expiration time
func (ts *TokenService) Mint(claims *JWTClaims, ttl time.Duration) (string, time.Time, error) {
	if claims == nil {
		return "", time.Time{}, goerrors.New("claims must not be nil", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	if ttl <= 0 {
		ttl = ts.ttl
	}

	// numeric dates have second precision, keep iat and exp aligned to it
	issuedAt := ts.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	signed := *claims
	signed.RegisteredClaims.IssuedAt = jwt.NewNumericDate(issuedAt)
	signed.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if signed.RegisteredClaims.Subject == "" {
		signed.RegisteredClaims.Subject = signed.UID
	}
	if signed.Issuer == "" {
		signed.Issuer = ts.issuer
	}
	if signed.ID == "" {
		signed.ID = ts.newID()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &signed)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("token service failed to sign claims", "error", err)
		return "", time.Time{}, internalError(err, "failed to sign JWT")
	}

	return signedString, expiresAt, nil
}

// Verify checks signature and expiry. Every error carries one of the
// AuthErrorKind text codes, see AuthErrorKindOf.
func (ts *TokenService) Verify(tokenString string) (*JWTClaims, error) {
	if tokenString == "" {
		return nil, NewAuthError(Malformed, errors.New("empty token"))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// reject non canonical base64 so every signature has one encoding
		jwt.WithStrictDecoding(),
		// expiry is checked below so a token is still valid at exactly exp
		jwt.WithoutClaimsValidation(),
	)

	if err != nil {
		return nil, classifyParseError(err)
	}

	if !token.Valid {
		return nil, NewAuthError(InvalidSignature, errors.New("token not valid"))
	}

	if claims.ExpiresAt == nil {
		return nil, NewAuthError(Malformed, jwt.ErrTokenRequiredClaimMissing)
	}

	if ts.now().After(claims.ExpiresAt.Time) {
		return nil, NewAuthError(Expired, fmt.Errorf("expired at %s", claims.ExpiresAt.Time.UTC().Format(time.RFC3339)))
	}

	if ts.issuer != "" && claims.Issuer != ts.issuer {
		return nil, NewAuthError(Malformed, jwt.ErrTokenInvalidIssuer)
	}

	if claims.UserID() == "" {
		return nil, NewAuthError(Malformed, errors.New("token has no user id"))
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return NewAuthError(InvalidSignature, err)
	default:
		return NewAuthError(Malformed, err)
	}
}
