package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/task_manager/internal/config"
	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/metrics"
	authmw "github.com/Skotchmaster/task_manager/internal/middleware/auth"
	"github.com/Skotchmaster/task_manager/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/task_manager/internal/middleware/logging"
)

type Deps struct {
	Auth       *AuthHTTP
	Tasks      *TaskHTTP
	Categories *CategoryHTTP
	Admin      *AdminHTTP
	Health     *HealthHTTP
	AuthMW     *authmw.Middleware
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New builds the echo instance with the shared middleware stack and all routes.
func New(cfg config.Config, d *Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(d.Metrics.Middleware())
	e.Use(loggingmw.RequestLogger(d.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
		ExposeHeaders:    []string{authmw.AccessTokenHeader},
		AllowCredentials: true,
	}))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:         cfg.CookieSecure,
			SessionCookies: []string{cfg.AccessCookieName, cfg.RefreshCookieName},
			TrustedOrigins: cfg.CORSOrigins,
			SkipPaths:      []string{"/auth/login", "/auth/register"},
		}))
	}

	Register(e, cfg, d)
	return e
}

func authLimiter(cfg config.Config) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.AuthRatePerSecond),
			Burst:     cfg.AuthRateBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}

func Register(e *echo.Echo, cfg config.Config, d *Deps) {
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)
	e.GET("/ping/app", d.Health.PingApp)
	e.GET("/ping/db", d.Health.PingDB)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	authn := d.AuthMW.Authenticate
	canRead := authmw.RequirePermission(domain.PermissionRead)
	canWrite := authmw.RequirePermission(domain.PermissionWrite)
	canDelete := authmw.RequirePermission(domain.PermissionDelete)
	adminOnly := authmw.RequireRole(domain.RoleAdmin)

	auth := e.Group("/auth")
	if cfg.AuthRatePerSecond > 0 {
		auth.Use(authLimiter(cfg))
	}
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout, authn)
	auth.GET("/me", d.Auth.Me, authn)

	tasks := e.Group("/tasks", authn)
	tasks.GET("", d.Tasks.List, canRead)
	tasks.GET("/search", d.Tasks.Search, canRead)
	tasks.GET("/:id", d.Tasks.Get, canRead)
	tasks.POST("", d.Tasks.Create, canWrite)
	tasks.PATCH("/:id", d.Tasks.Patch, canWrite)
	tasks.DELETE("/:id", d.Tasks.Delete, canDelete)
	tasks.POST("/:id/restore", d.Tasks.Restore, adminOnly)

	categories := e.Group("/categories", authn)
	categories.GET("", d.Categories.List, canRead)
	categories.POST("", d.Categories.Create, adminOnly)

	admin := e.Group("/admin", authn, adminOnly)
	admin.PATCH("/users/:id/access", d.Admin.UpdateAccess)
}
