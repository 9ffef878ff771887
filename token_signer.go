package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// MinSigningKeySize is the smallest signing key the signer will accept.
// Shorter HMAC keys weaken the signature below the hash output size.
const MinSigningKeySize = 32

// TokenSigner issues and verifies HMAC signed session tokens
type TokenSigner interface {
	Issue(claims *JWTClaims) (string, time.Time, error)
	Verify(tokenText string) (AuthClaims, error)
}

// HMACSigner implements TokenSigner over HS256 with a shared secret
type HMACSigner struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenSigner creates a signer from config. Construction fails when the
// signing key is under MinSigningKeySize bytes so a weak key never makes it
// past startup.
func NewTokenSigner(cfg Config, logger Logger) (*HMACSigner, error) {
	if logger == nil {
		logger = defLogger{}
	}

	key := []byte(cfg.GetSigningKey())
	if len(key) < MinSigningKeySize {
		return nil, signingKeyError(len(key))
	}

	return &HMACSigner{
		signingKey: key,
		ttl:        time.Duration(cfg.GetTokenExpiration()) * time.Hour,
		issuer:     cfg.GetIssuer(),
		audience:   jwt.ClaimStrings(cfg.GetAudience()),
		logger:     logger,
	}, nil
}

// Issue stamps issuer, audience, and the validity window onto the claims and
// signs them. The expiry instant is returned alongside the compact token.
func (ts *HMACSigner) Issue(claims *JWTClaims) (string, time.Time, error) {
	if claims == nil {
		return "", time.Time{}, errors.New("claims must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	expires := now.Add(ts.ttl)

	claims.RegisteredClaims.Issuer = ts.issuer
	claims.RegisteredClaims.Audience = ts.audience
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(expires)

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, expires, nil
}

// Verify parses and validates a token string, returning structured claims.
// Verification uses zero clock skew: a token is invalid the instant exp
// passes, and issuer and audience must match the signer's configuration.
func (ts *HMACSigner) Verify(tokenText string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithLeeway(0),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenText, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return nil, ts.verificationError(err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token verify could not decode or validate claims")
	return nil, ErrTokenMalformed
}

func signingKeyError(size int) error {
	clone := ErrSigningKeyTooShort.Clone()
	if clone == nil {
		return ErrSigningKeyTooShort
	}
	clone.Source = ErrSigningKeyTooShort
	return clone.WithMetadata(map[string]any{"key_size": size})
}

// verificationError maps jwt library sentinels onto our error taxonomy so
// callers can distinguish an expired token from a forged one.
func (ts *HMACSigner) verificationError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudienceMismatch
	}
	return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
		WithTextCode(ErrTokenMalformed.TextCode)
}
