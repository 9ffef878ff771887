package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthResult is the outcome of a lifecycle operation. Business rejections
// (bad credentials, duplicate email) come back as Success=false with a client
// safe Message; infrastructure failures surface as errors instead.
type AuthResult struct {
	Success          bool      `json:"success"`
	Message          string    `json:"message,omitempty"`
	Username         string    `json:"username,omitempty"`
	Email            string    `json:"email,omitempty"`
	Roles            []string  `json:"roles,omitempty"`
	Token            string    `json:"token,omitempty"`
	ExpiresOn        time.Time `json:"expires_on,omitempty"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresOn time.Time `json:"refresh_expires_on,omitempty"`
}

// AuthEngine coordinates credential verification, session token issuance,
// and refresh token rotation over a single user store.
type AuthEngine struct {
	repo            RepositoryManager
	signer          TokenSigner
	refresh         RefreshTokenStore
	claims          ClaimsBuilder
	password        PasswordAuthenticator
	logger          Logger
	activitySink    ActivitySink
	claimsDecorator ClaimsDecorator
}

// Verify interface compliance
var _ Engine = &AuthEngine{}

// NewAuthEngine creates the engine. It fails when the configuration cannot
// produce a usable signer, e.g. a signing key under MinSigningKeySize bytes.
func NewAuthEngine(repo RepositoryManager, cfg Config) (*AuthEngine, error) {
	signer, err := NewTokenSigner(cfg, defLogger{})
	if err != nil {
		return nil, err
	}

	return &AuthEngine{
		repo:            repo,
		signer:          signer,
		refresh:         NewRefreshTokenStore(cfg, defLogger{}),
		claims:          NewClaimsBuilder(),
		password:        NewPasswordAuthenticator(),
		logger:          defLogger{},
		activitySink:    noopActivitySink{},
		claimsDecorator: noopClaimsDecorator{},
	}, nil
}

func (s *AuthEngine) WithLogger(logger Logger) *AuthEngine {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *AuthEngine) WithActivitySink(sink ActivitySink) *AuthEngine {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching JWTs.
func (s *AuthEngine) WithClaimsDecorator(decorator ClaimsDecorator) *AuthEngine {
	s.claimsDecorator = normalizeClaimsDecorator(decorator)
	return s
}

// WithPasswordAuthenticator swaps the password hashing implementation.
func (s *AuthEngine) WithPasswordAuthenticator(authenticator PasswordAuthenticator) *AuthEngine {
	if authenticator != nil {
		s.password = authenticator
	}
	return s
}

// WithClaimsBuilder swaps the claims assembly implementation.
func (s *AuthEngine) WithClaimsBuilder(builder ClaimsBuilder) *AuthEngine {
	if builder != nil {
		s.claims = builder
	}
	return s
}

// WithTokenSigner swaps the signer, e.g. to share one across services.
func (s *AuthEngine) WithTokenSigner(signer TokenSigner) *AuthEngine {
	if signer != nil {
		s.signer = signer
	}
	return s
}

// Signer returns the TokenSigner used by this engine so middleware can
// verify the tokens it issues.
func (s *AuthEngine) Signer() TokenSigner {
	return s.signer
}

// Register creates a new account and returns a session token. No refresh
// token is issued at registration; clients obtain one through Login.
func (s *AuthEngine) Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error) {
	if _, err := s.repo.Users().GetByEmail(ctx, msg.Email); err == nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "anonymous"}, "", map[string]any{
			"email": msg.Email,
			"error": ErrDuplicateEmail.Message,
		})
		return failureResult(ErrDuplicateEmail), nil
	} else if !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email uniqueness")
	}

	username := getUsername(msg.Username, msg.Email)
	if _, err := s.repo.Users().GetByUsername(ctx, username); err == nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "anonymous"}, "", map[string]any{
			"username": username,
			"error":    ErrDuplicateUsername.Message,
		})
		return failureResult(ErrDuplicateUsername), nil
	} else if !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check username uniqueness")
	}

	handler := NewRegisterUserHandler(s.repo)
	user, err := handler.Execute(ctx, msg)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryValidation {
			s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "anonymous"}, "", map[string]any{
				"email": msg.Email,
				"error": richErr.Message,
			})
			return failureResult(richErr), nil
		}
		return nil, err
	}

	token, expires, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, actorFromUser(user), user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return &AuthResult{
		Success:   true,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.Roles,
		Token:     token,
		ExpiresOn: expires,
	}, nil
}

// Login verifies credentials and issues a session token plus a refresh
// token. Unknown email and wrong password produce identical results so the
// response never reveals whether an account exists.
func (s *AuthEngine) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"email": email,
			})
			return failureResult(ErrInvalidCredentials), nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user for login")
	}

	if err := s.password.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromUser(user), user.ID.String(), map[string]any{
			"email": email,
		})
		return failureResult(ErrInvalidCredentials), nil
	}

	refreshToken := s.refresh.FindActive(user)
	if refreshToken == nil {
		err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			token, err := s.refresh.Generate(user)
			if err != nil {
				return err
			}
			refreshToken = token
			return s.repo.Users().CreateRefreshTokenTx(ctx, tx, token)
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
		}
	}

	token, expires, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
	})

	return &AuthResult{
		Success:          true,
		Username:         user.Username,
		Email:            user.Email,
		Roles:            user.Roles,
		Token:            token,
		ExpiresOn:        expires,
		RefreshToken:     refreshToken.Token,
		RefreshExpiresOn: refreshToken.ExpiresOn,
	}, nil
}

// Refresh exchanges an active refresh token for a fresh session token and a
// replacement refresh token. The presented token is revoked in the same
// transaction; a second exchange of the same value reports it inactive.
func (s *AuthEngine) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	var result *AuthResult

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByRefreshTokenTx(ctx, tx, refreshToken)
		if err != nil {
			if errors.IsNotFound(err) {
				result = failureResult(ErrRefreshTokenNotFound)
				return nil
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to resolve refresh token")
		}

		old, replacement, err := s.refresh.Rotate(user, refreshToken)
		if err != nil {
			if errors.Is(err, ErrRefreshTokenInactive) {
				s.emitAuthEvent(ctx, ActivityEventRefreshReuse, actorFromUser(user), user.ID.String(), nil)
				result = failureResult(ErrRefreshTokenInactive)
				return nil
			}
			if errors.Is(err, ErrRefreshTokenNotFound) {
				result = failureResult(ErrRefreshTokenNotFound)
				return nil
			}
			return err
		}

		if err := s.repo.Users().UpdateRefreshTokenTx(ctx, tx, old); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to revoke refresh token")
		}

		if err := s.repo.Users().CreateRefreshTokenTx(ctx, tx, replacement); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to persist replacement refresh token")
		}

		token, expires, err := s.issueToken(ctx, user)
		if err != nil {
			return err
		}

		s.emitAuthEvent(ctx, ActivityEventRefreshRotated, actorFromUser(user), user.ID.String(), map[string]any{
			"replaced": old.ID.String(),
		})

		result = &AuthResult{
			Success:          true,
			Username:         user.Username,
			Email:            user.Email,
			Roles:            user.Roles,
			Token:            token,
			ExpiresOn:        expires,
			RefreshToken:     replacement.Token,
			RefreshExpiresOn: replacement.ExpiresOn,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Revoke marks a refresh token revoked without a replacement. The boolean
// reports whether a revocation happened; unknown and already inactive tokens
// both return false so callers cannot probe the token space.
func (s *AuthEngine) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	revoked := false

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByRefreshTokenTx(ctx, tx, refreshToken)
		if err != nil {
			if errors.IsNotFound(err) {
				s.logger.Debug("revoke called with unknown refresh token")
				return nil
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to resolve refresh token")
		}

		token, err := s.refresh.Revoke(user, refreshToken)
		if err != nil {
			if errors.Is(err, ErrRefreshTokenInactive) || errors.Is(err, ErrRefreshTokenNotFound) {
				s.logger.Debug("revoke called with inactive refresh token for user %s", user.ID)
				return nil
			}
			return err
		}

		if err := s.repo.Users().UpdateRefreshTokenTx(ctx, tx, token); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token revocation")
		}

		s.emitAuthEvent(ctx, ActivityEventRefreshRevoked, actorFromUser(user), user.ID.String(), nil)
		revoked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return revoked, nil
}

// AddRole assigns a named role to a user. The role must exist in the role
// store and the user must not already hold it.
func (s *AuthEngine) AddRole(ctx context.Context, userID, role string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}

	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load user for role assignment")
	}

	exists, err := s.repo.Roles().Exists(ctx, role)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check role existence")
	}
	if !exists {
		return ErrRoleNotFound
	}

	if user.HasRole(role) {
		return ErrAlreadyInRole
	}

	user.AddRole(role)
	if _, err := s.repo.Users().Update(ctx, user); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist role assignment")
	}

	s.emitAuthEvent(ctx, ActivityEventRoleAssigned, actorFromUser(user), user.ID.String(), map[string]any{
		"role": role,
	})

	return nil
}

// Verify validates a session token string and returns its claims.
func (s *AuthEngine) Verify(tokenText string) (AuthClaims, error) {
	return s.signer.Verify(tokenText)
}

// issueToken builds, decorates, and signs a session token for the user.
// Decorators only get to touch the Metadata extension; any other mutation
// aborts issuance.
func (s *AuthEngine) issueToken(ctx context.Context, user *User) (string, time.Time, error) {
	claims := s.claims.Build(user)
	snapshot := captureImmutableClaims(claims)

	decorator := normalizeClaimsDecorator(s.claimsDecorator)
	if err := decorator.DecorateClaims(ctx, user, claims); err != nil {
		s.logger.Error("claims decorator failed: %v", err)
		return "", time.Time{}, err
	}

	if err := snapshot.validate(claims); err != nil {
		s.logger.Error("claims decorator mutated immutable claims: %v", err)
		return "", time.Time{}, err
	}

	return s.signer.Issue(claims)
}

func (s *AuthEngine) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func actorFromUser(user *User) ActorRef {
	return ActorRef{ID: user.ID.String(), Type: "user"}
}

func failureResult(err *errors.Error) *AuthResult {
	return &AuthResult{Success: false, Message: err.Message}
}
