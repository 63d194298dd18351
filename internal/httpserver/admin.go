package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/util"
)

type AdminHTTP struct {
	Svc *service.AuthService
}

// UpdateAccess replaces a user's role and permission set.
func (h *AdminHTTP) UpdateAccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_access")

	id := util.ParseUintDefault(c.Param("id"), 0)
	if id == 0 {
		l.Warn("update_access_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}

	var req UpdateAccessRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_access_failed", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return fail(l, "update_access_failed", err)
	}
	perms, err := domain.ParsePermissionSet(strings.Join(req.Permissions, ","))
	if err != nil {
		return fail(l, "update_access_failed", err)
	}

	u, err := h.Svc.UpdateAccess(ctx, id, role, perms)
	if err != nil {
		return fail(l, "update_access_failed", err)
	}
	l.Info("access_updated", "user_id", u.ID, "role", u.Role, "permissions", u.Permissions.String())
	return c.JSON(http.StatusOK, u)
}
