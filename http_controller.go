package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAuthRoutes mounts the JSON auth API on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Post(controller.Routes.Token, controller.TokenCreate).
		SetName("auth.token")

	app.Post(controller.Routes.RefreshToken, controller.RefreshTokenPost).
		SetName("auth.refresh-token")

	app.Post(controller.Routes.RevokeToken, controller.RevokeTokenPost).
		SetName("auth.revoke-token")

	app.Post(controller.Routes.AddRole, controller.AddRolePost,
		controller.Auther.ProtectedRoute(
			controller.Auther.MakeClientRouteAuthErrorHandler(false),
			RoleAdmin,
		),
	).SetName("auth.add-role")
}

type AuthControllerRoutes struct {
	Register     string
	Token        string
	RefreshToken string
	RevokeToken  string
	AddRole      string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Engine       Engine
	Routes       *AuthControllerRoutes
	Auther       *RouteAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:     "/auth/register",
			Token:        "/auth/token",
			RefreshToken: "/auth/refresh-token",
			RevokeToken:  "/auth/revoke-token",
			AddRole:      "/auth/add-role",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Engine == nil {
		panic("Missing Engine in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Auther.ErrorHandler
	}

	return c
}

// WithEngine sets the lifecycle engine on the controller.
func WithEngine(engine Engine) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Engine = engine
		return c
	}
}

// WithHTTPAuthenticator sets the transport helper on the controller.
func WithHTTPAuthenticator(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerLogger sets the logger on the controller.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// RegistrationCreatePayload is the register request body
type RegistrationCreatePayload struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {

	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	result, err := a.Engine.Register(ctx.Context(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Username:  payload.Username,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
	})
	if err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if !result.Success {
		return ctx.JSON(fiber.StatusBadRequest, result)
	}

	return ctx.JSON(fiber.StatusOK, result)
}

// TokenCreatePayload is the login request body
type TokenCreatePayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r TokenCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) TokenCreate(ctx router.Context) error {
	payload := new(TokenCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("token create parse payload: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	result, err := a.Engine.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("token create error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if !result.Success {
		return ctx.JSON(fiber.StatusBadRequest, result)
	}

	a.Auther.SetRefreshCookie(ctx, result.RefreshToken, result.RefreshExpiresOn)

	return ctx.JSON(fiber.StatusOK, result)
}

// RefreshTokenPayload carries an explicit refresh token for clients that do
// not use the cookie transport
type RefreshTokenPayload struct {
	Token string `json:"token"`
}

func (a *AuthController) RefreshTokenPost(ctx router.Context) error {
	token := a.refreshTokenFromRequest(ctx)
	if token == "" {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Token is required",
		})
	}

	result, err := a.Engine.Refresh(ctx.Context(), token)
	if err != nil {
		a.Logger.Error("refresh token error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if !result.Success {
		return ctx.JSON(fiber.StatusBadRequest, result)
	}

	a.Auther.SetRefreshCookie(ctx, result.RefreshToken, result.RefreshExpiresOn)

	return ctx.JSON(fiber.StatusOK, result)
}

func (a *AuthController) RevokeTokenPost(ctx router.Context) error {
	token := a.refreshTokenFromRequest(ctx)
	if token == "" {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Token is required",
		})
	}

	revoked, err := a.Engine.Revoke(ctx.Context(), token)
	if err != nil {
		a.Logger.Error("revoke token error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if !revoked {
		return ctx.JSON(fiber.StatusNotFound, map[string]any{
			"success": false,
			"message": ErrRefreshTokenNotFound.Message,
		})
	}

	a.Auther.ClearRefreshCookie(ctx)

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

// AddRolePayload assigns a role to a user
type AddRolePayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Validate will validate the payload
func (r AddRolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.UserID,
			validation.Required,
			is.UUIDv4,
		),
		validation.Field(
			&r.Role,
			validation.Required,
		),
	)
}

func (a *AuthController) AddRolePost(ctx router.Context) error {
	payload := new(AddRolePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("add role parse payload: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Engine.AddRole(ctx.Context(), payload.UserID, payload.Role); err != nil {
		a.Logger.Error("add role error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

// refreshTokenFromRequest prefers the cookie transport, falling back to an
// explicit body value for non-browser clients.
func (a *AuthController) refreshTokenFromRequest(ctx router.Context) string {
	if token := a.Auther.RefreshTokenFromRequest(ctx); token != "" {
		return token
	}

	payload := new(RefreshTokenPayload)
	if err := ctx.Bind(payload); err != nil {
		return ""
	}

	return payload.Token
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber checks that a non empty value parses as a valid phone
// number. Numbers without a country code are interpreted as US.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a field
// name to message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
