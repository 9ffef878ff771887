package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authkit/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RefreshCookieName is the cookie carrying the opaque refresh token. The
// cookie is HTTP only so scripts never see the token value.
const RefreshCookieName = "refresh_token"

// RouteAuthenticator wires the engine into HTTP transport concerns: the
// refresh token cookie, protected route middleware, and error rendering.
type RouteAuthenticator struct {
	engine       *AuthEngine
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(engine *AuthEngine, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		engine: engine,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute guards a route with session token verification. Pass a
// required role to additionally enforce membership.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error, requiredRole ...string) router.MiddlewareFunc {
	role := ""
	if len(requiredRole) > 0 {
		role = requiredRole[0]
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: NewTokenValidator(a.engine.Signer()),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		RequiredRole:   role,
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

// NewTokenValidator adapts a TokenSigner to the middleware validator contract.
func NewTokenValidator(signer TokenSigner) jwtware.TokenValidator {
	return signerValidator{signer: signer}
}

type signerValidator struct {
	signer TokenSigner
}

func (v signerValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.signer.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return jwtware.AuthClaims(claims), nil
}

// SetRefreshCookie stores a refresh token in the transport cookie.
func (a *RouteAuthenticator) SetRefreshCookie(c router.Context, token string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// RefreshTokenFromRequest reads the refresh token cookie, empty when absent.
func (a *RouteAuthenticator) RefreshTokenFromRequest(c router.Context) string {
	return c.Cookies(RefreshCookieName)
}

// ClearRefreshCookie expires the refresh token cookie.
func (a *RouteAuthenticator) ClearRefreshCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// MakeClientRouteAuthErrorHandler builds the middleware error handler. With
// optional set, verification failures let the request proceed anonymously.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request error handler: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(statusForCategory(richErr), map[string]any{
		"success":   false,
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func statusForCategory(err *errors.Error) int {
	if err.Code > 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return fiber.StatusUnauthorized
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
