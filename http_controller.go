package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// RegisterAuthRoutes mounts the user routes on app and returns the
// controller serving them
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	users := app.Group(controller.Routes.Prefix)

	users.Post(controller.Routes.Register, controller.RegistrationCreate).
		Name("users.register")

	users.Post(controller.Routes.Login, controller.LoginPost).
		Name("users.login")

	users.Get(controller.Routes.Current, controller.Guard.ProtectedRoute(), controller.Current).
		Name("users.current")

	users.Get(controller.Routes.User, controller.listGuard(controller.UserShow)...).
		Name("users.show")

	users.Get("/", controller.listGuard(controller.UserList)...).
		Name("users.list")

	return controller
}

type AuthControllerRoutes struct {
	Prefix   string
	Register string
	Login    string
	Current  string
	User     string
}

type AuthController struct {
	Debug     bool
	ListRole  string
	Logger    Logger
	Users     Users
	Registrar Registrar
	Auther    Authenticator
	Guard     *RouteAuthenticator
	Routes    *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = normalizeLogger(logger)
		return ac
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Debug = debug
		return ac
	}
}

// WithListRole puts the user listing and lookup routes behind a guard
// that demands role. An empty role leaves them open.
func WithListRole(role string) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.ListRole = role
		return ac
	}
}

func WithUsers(users Users) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Users = users
		return ac
	}
}

func WithRegistrar(r Registrar) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Registrar = r
		return ac
	}
}

func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Auther = auther
		return ac
	}
}

func WithGuard(guard *RouteAuthenticator) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Guard = guard
		return ac
	}
}

func WithRoutePrefix(prefix string) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Routes.Prefix = prefix
		return ac
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: normalizeLogger(nil),
		Routes: &AuthControllerRoutes{
			Prefix:   "/api/users",
			Register: "/register",
			Login:    "/login",
			Current:  "/current",
			User:     "/user",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing Users repository in auth controller...")
	}

	if c.Registrar == nil {
		panic("Missing Registrar in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

func (a *AuthController) listGuard(h fiber.Handler) []fiber.Handler {
	if a.ListRole == "" {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{a.Guard.RequireRole(a.ListRole), h}
}

// Index answers the root health check
func Index(c *fiber.Ctx) error {
	return c.SendString("Hello World")
}

func (a *AuthController) RegistrationCreate(ctx *fiber.Ctx) error {
	payload := RegisterUserMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return a.writeError(ctx, err, "Saving user failed")
	}

	if a.Debug {
		redacted := payload
		redacted.Password, redacted.Password2 = "", ""
		a.Logger.Debug("register payload", "payload", print.MaybePrettyJSON(redacted))
	}

	user, err := a.Registrar.Execute(ctx.UserContext(), payload)
	if err != nil {
		return a.writeError(ctx, err, "Saving user failed")
	}

	return ctx.JSON(user)
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := parseBody(ctx, &payload); err != nil {
		return a.writeError(ctx, err, "Login failed")
	}

	if a.Debug {
		a.Logger.Debug("login payload", "email", payload.Email)
	}

	result, err := a.Auther.Login(ctx.UserContext(), payload)
	if err != nil {
		return a.writeError(ctx, err, "Login failed")
	}

	if a.Debug {
		a.Logger.Debug("login result", "user", print.MaybePrettyJSON(result.User.Public()), "expires_at", result.ExpiresAt)
	}

	return ctx.JSON(fiber.Map{
		"success":    true,
		"token":      result.Token,
		"first_name": result.User.FirstName,
		"last_name":  result.User.LastName,
	})
}

// Current returns the user resolved from the bearer token
func (a *AuthController) Current(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	return ctx.JSON(fiber.Map{
		"id":         user.ID.String(),
		"first_name": user.FirstName,
		"email":      user.Email,
		"role":       user.Role,
	})
}

func (a *AuthController) UserList(ctx *fiber.Ctx) error {
	records, err := a.Users.List(ctx.UserContext())
	if err != nil {
		a.Logger.Error("list users failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	ctx.Set("Content-Range", fmt.Sprintf("users 0-%d/%d", len(records), len(records)))
	return ctx.JSON(PublicUsers(records))
}

func (a *AuthController) UserShow(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Query("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"id": "Invalid user id",
		})
	}

	user, err := a.Users.GetByID(ctx.UserContext(), id)
	if err != nil {
		if IsRecordNotFound(err) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		a.Logger.Error("get user failed", "user_id", id.String(), "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch user",
		})
	}

	return ctx.JSON(user.Public())
}

// parseBody decodes JSON or form bodies. An empty body leaves out
// untouched so validation reports the missing fields.
func parseBody(ctx *fiber.Ctx, out any) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	if err := ctx.BodyParser(out); err != nil {
		return goerrors.NewValidationFromMap("invalid request body", map[string]string{
			"form": "Invalid request body",
		}).WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// writeError maps flow errors to responses. fallback is the message
// sent for server side failures.
func (a *AuthController) writeError(ctx *fiber.Ctx, err error, fallback string) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = internalError(err, fallback)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	switch richErr.TextCode {
	case TextCodeEmailExists:
		return ctx.Status(status).JSON(fiber.Map{
			"email": "Email already exists",
		})
	case TextCodeUserNotFound:
		return ctx.Status(status).JSON(fiber.Map{
			"email": "User not found",
		})
	case goerrors.TextCodeInvalidCredentials:
		return ctx.Status(status).JSON(fiber.Map{
			"password": "Incorrect password",
		})
	}

	switch richErr.Category {
	case goerrors.CategoryValidation:
		return ctx.Status(fiber.StatusBadRequest).JSON(richErr.ValidationMap())
	case goerrors.CategoryAuth:
		return ctx.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	a.Logger.Error("request failed",
		"path", ctx.Path(),
		"category", richErr.Category,
		"error", err,
	)

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
	})
}
