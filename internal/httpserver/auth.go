package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/metrics"
	authmw "github.com/Skotchmaster/task_manager/internal/middleware/auth"
	"github.com/Skotchmaster/task_manager/internal/service"
)

const tokenType = "bearer"

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies authmw.Cookies
	Metrics *metrics.Metrics
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", err)
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		h.Metrics.AuthEvent("register", "failure")
		return fail(l, "register_failed", err)
	}

	h.Cookies.SetPair(c, res.Tokens)
	h.Metrics.AuthEvent("register", "success")
	l.Info("register_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, RegisterResponse{
		TokenResponse: TokenResponse{AccessToken: res.Tokens.AccessToken, TokenType: tokenType},
		User:          res.User,
	})
}

// Login binds form-encoded or JSON bodies, whichever the Content-Type says.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", err)
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		h.Metrics.AuthEvent("login", "failure")
		return fail(l, "login_failed", err)
	}

	h.Cookies.SetPair(c, res.Tokens)
	h.Metrics.AuthEvent("login", "success")
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: res.Tokens.AccessToken, TokenType: tokenType})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	res, err := h.Svc.Refresh(ctx, h.Cookies.Refresh(c))
	if err != nil {
		h.Metrics.AuthEvent("refresh", "failure")
		code, _ := status(err)
		if code == http.StatusUnauthorized {
			h.Cookies.Clear(c)
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		return fail(l, "refresh_failed", err)
	}

	h.Cookies.SetPair(c, res.Tokens)
	h.Metrics.AuthEvent("refresh", "success")
	l.Info("refresh_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: res.Tokens.AccessToken, TokenType: tokenType})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	u, ok := authmw.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	h.Cookies.Clear(c)
	if err := h.Svc.Logout(ctx, u.ID); err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("successful_logout", "user_id", u.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	u, ok := authmw.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	return c.JSON(http.StatusOK, u)
}
