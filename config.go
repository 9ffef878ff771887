package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// AuthConfig is the concrete configuration for the token lifecycle engine.
// Zero values for the optional fields are filled in by NewAuthConfig.
type AuthConfig struct {
	// SigningKey is the shared HMAC secret, at least MinSigningKeySize bytes
	SigningKey string `json:"signing_key"`
	// Issuer is stamped as iss on every issued token and enforced on verify
	Issuer string `json:"issuer"`
	// Audience is stamped as aud and enforced on verify
	Audience []string `json:"audience"`
	// TokenExpiration is the session token validity window in hours
	TokenExpiration int `json:"token_expiration"`
	// RefreshTokenDuration is the refresh token validity window in days
	RefreshTokenDuration int `json:"refresh_token_duration"`
	// ContextKey is where middleware stores verified claims
	ContextKey string `json:"context_key"`
	// TokenLookup tells middleware where to find the session token,
	// e.g. "header:Authorization" or "cookie:session"
	TokenLookup string `json:"token_lookup"`
	// AuthScheme is the expected Authorization header prefix
	AuthScheme string `json:"auth_scheme"`
}

// Verify interface compliance
var _ Config = &AuthConfig{}

// NewAuthConfig creates a config with sensible defaults applied. The signing
// key, issuer, and audience have no defaults and must be provided.
func NewAuthConfig(signingKey, issuer string, audience []string) *AuthConfig {
	cfg := &AuthConfig{
		SigningKey: signingKey,
		Issuer:     issuer,
		Audience:   audience,
	}
	return cfg.withDefaults()
}

func (c *AuthConfig) withDefaults() *AuthConfig {
	if c.TokenExpiration == 0 {
		c.TokenExpiration = 24
	}
	if c.RefreshTokenDuration == 0 {
		c.RefreshTokenDuration = 10
	}
	if c.ContextKey == "" {
		c.ContextKey = "user"
	}
	if c.TokenLookup == "" {
		c.TokenLookup = "header:Authorization"
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	return c
}

// Validate checks the configuration for fatal misconfiguration. Call it at
// startup; a short signing key must never reach the signer.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(
			&c.SigningKey,
			validation.Required,
			validation.Length(MinSigningKeySize, 0),
		),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.Audience, validation.Required),
		validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&c.RefreshTokenDuration, validation.Required, validation.Min(1)),
	)
}

func (c *AuthConfig) GetSigningKey() string          { return c.SigningKey }
func (c *AuthConfig) GetIssuer() string              { return c.Issuer }
func (c *AuthConfig) GetAudience() []string          { return c.Audience }
func (c *AuthConfig) GetTokenExpiration() int        { return c.TokenExpiration }
func (c *AuthConfig) GetRefreshTokenDuration() int   { return c.RefreshTokenDuration }
func (c *AuthConfig) GetContextKey() string          { return c.ContextKey }
func (c *AuthConfig) GetTokenLookup() string         { return c.TokenLookup }
func (c *AuthConfig) GetAuthScheme() string          { return c.AuthScheme }
