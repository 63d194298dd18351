package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/config"
	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/service"
)

const (
	userKey           = "current_user"
	AccessTokenHeader = "X-Access-Token"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "not enough permissions")
)

type Authenticator interface {
	ResolveAccess(ctx context.Context, accessToken string) (*domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error)
}

type Middleware struct {
	Auth          Authenticator
	Cookies       Cookies
	Source        config.TokenSource
	SilentRefresh bool
}

func New(a Authenticator, cfg config.Config) *Middleware {
	return &Middleware{
		Auth: a,
		Cookies: Cookies{
			AccessName:  cfg.AccessCookieName,
			RefreshName: cfg.RefreshCookieName,
			Secure:      cfg.CookieSecure,
		},
		Source:        cfg.TokenSource,
		SilentRefresh: cfg.SilentRefresh,
	}
}

func (m *Middleware) extract(c echo.Context) string {
	if m.Source.Header() {
		h := c.Request().Header.Get(echo.HeaderAuthorization)
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	if m.Source.Cookie() {
		if ck, err := c.Cookie(m.Cookies.AccessName); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	return ""
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return errUnauthorized
}

// Authenticate resolves the caller and stores it on the context. An expired
// access token is exchanged for a new pair when silent refresh is on and a
// refresh cookie is present.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "auth")

		token := m.extract(c)
		if token == "" {
			l.Info("auth_failed", "status", 401, "reason", "missing token")
			return unauthorized(c)
		}

		user, err := m.Auth.ResolveAccess(ctx, token)
		if errors.Is(err, domain.ErrExpiredToken) && m.SilentRefresh {
			user, err = m.silentRefresh(c)
		}
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrDatabase):
				l.Error("auth_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			default:
				l.Info("auth_failed", "status", 401, "reason", err.Error())
				return unauthorized(c)
			}
		}

		c.Set(userKey, user)
		return next(c)
	}
}

func (m *Middleware) silentRefresh(c echo.Context) (*domain.User, error) {
	raw := m.Cookies.Refresh(c)
	if raw == "" {
		return nil, domain.ErrExpiredToken
	}
	res, err := m.Auth.Refresh(c.Request().Context(), raw)
	if err != nil {
		if !errors.Is(err, domain.ErrDatabase) {
			m.Cookies.Clear(c)
		}
		return nil, err
	}

	m.Cookies.SetPair(c, res.Tokens)
	c.Response().Header().Set(AccessTokenHeader, res.Tokens.AccessToken)
	logging.FromContext(c.Request().Context()).Info("token_refreshed", "user_id", res.User.ID)
	return res.User, nil
}

func CurrentUser(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userKey).(*domain.User)
	return u, ok && u != nil
}

func SetCurrentUser(c echo.Context, u *domain.User) {
	c.Set(userKey, u)
}

func requireUser(allowed func(*domain.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return unauthorized(c)
			}
			if !allowed(u) {
				logging.FromContext(c.Request().Context()).Info("access_denied", "status", 403, "user_id", u.ID)
				return errForbidden
			}
			return next(c)
		}
	}
}

func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return requireUser(func(u *domain.User) bool { return u.Role == role })
}

// RequirePermission is a plain set check; the admin role does not imply it.
func RequirePermission(p domain.Permission) echo.MiddlewareFunc {
	return requireUser(func(u *domain.User) bool { return u.Permissions.Has(p) })
}
