package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/service"
)

// Cookies names and flags the auth cookies.
type Cookies struct {
	AccessName  string
	RefreshName string
	Secure      bool
}

func (k Cookies) create(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (k Cookies) delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (k Cookies) SetAccess(c echo.Context, p service.TokenPair) {
	c.SetCookie(k.create(k.AccessName, p.AccessToken, p.AccessExp))
}

func (k Cookies) SetRefresh(c echo.Context, p service.TokenPair) {
	c.SetCookie(k.create(k.RefreshName, p.RefreshToken, p.RefreshExp))
}

func (k Cookies) SetPair(c echo.Context, p service.TokenPair) {
	k.SetAccess(c, p)
	k.SetRefresh(c, p)
}

func (k Cookies) Clear(c echo.Context) {
	c.SetCookie(k.delete(k.AccessName))
	c.SetCookie(k.delete(k.RefreshName))
}

func (k Cookies) Refresh(c echo.Context) string {
	ck, err := c.Cookie(k.RefreshName)
	if err != nil {
		return ""
	}
	return ck.Value
}
