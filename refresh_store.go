package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RefreshTokenSize is the entropy of a refresh token in bytes before encoding
const RefreshTokenSize = 32

// RefreshTokenStore manages the refresh token collection on a user aggregate.
// All methods mutate the in memory aggregate only; callers persist the
// returned rows inside their own transaction.
type RefreshTokenStore interface {
	// Generate mints a new active token and appends it to the user.
	Generate(user *User) (*RefreshToken, error)

	// FindActive returns the oldest active token, or nil when none remains.
	FindActive(user *User) *RefreshToken

	// Rotate revokes the presented token and issues a replacement. The old
	// and new rows are both returned so callers can persist the revocation
	// and the insert together.
	Rotate(user *User, tokenText string) (old, replacement *RefreshToken, err error)

	// Revoke marks the presented token revoked without a replacement.
	Revoke(user *User, tokenText string) (*RefreshToken, error)
}

type refreshTokenStore struct {
	ttl    time.Duration
	logger Logger
}

// NewRefreshTokenStore creates a store issuing tokens valid for the
// configured number of days.
func NewRefreshTokenStore(cfg Config, logger Logger) RefreshTokenStore {
	if logger == nil {
		logger = defLogger{}
	}
	return &refreshTokenStore{
		ttl:    time.Duration(cfg.GetRefreshTokenDuration()) * 24 * time.Hour,
		logger: logger,
	}
}

func (s *refreshTokenStore) Generate(user *User) (*RefreshToken, error) {
	tokenText, err := randomTokenText()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate refresh token")
	}

	now := time.Now()
	token := &RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     tokenText,
		CreatedOn: now,
		ExpiresOn: now.Add(s.ttl),
	}

	user.RefreshTokens = append(user.RefreshTokens, token)

	return token, nil
}

func (s *refreshTokenStore) FindActive(user *User) *RefreshToken {
	// tokens are loaded in issuance order, so the first active one is the
	// oldest
	for _, t := range user.RefreshTokens {
		if t.IsActive() {
			return t
		}
	}
	return nil
}

func (s *refreshTokenStore) Rotate(user *User, tokenText string) (*RefreshToken, *RefreshToken, error) {
	old := findRefreshToken(user, tokenText)
	if old == nil {
		return nil, nil, ErrRefreshTokenNotFound
	}

	if !old.IsActive() {
		s.logger.Warn("refresh token reuse attempt for user %s", user.ID)
		return nil, nil, ErrRefreshTokenInactive
	}

	// mint the replacement before touching the old row so a generation
	// failure leaves the aggregate unchanged
	replacement, err := s.Generate(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	old.RevokedOn = &now

	return old, replacement, nil
}

func (s *refreshTokenStore) Revoke(user *User, tokenText string) (*RefreshToken, error) {
	token := findRefreshToken(user, tokenText)
	if token == nil {
		return nil, ErrRefreshTokenNotFound
	}

	if !token.IsActive() {
		return nil, ErrRefreshTokenInactive
	}

	now := time.Now()
	token.RevokedOn = &now

	return token, nil
}

func randomTokenText() (string, error) {
	buf := make([]byte, RefreshTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
