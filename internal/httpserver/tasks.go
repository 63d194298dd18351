package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/logging"
	authmw "github.com/Skotchmaster/task_manager/internal/middleware/auth"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/util"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

// caller returns the authenticated user; routes are registered behind the
// auth middleware so a miss is a wiring bug.
func caller(c echo.Context) (*domain.User, error) {
	u, ok := authmw.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	return u, nil
}

func taskID(c echo.Context, l *slog.Logger, event string) (uint, error) {
	id := util.ParseUintDefault(c.Param("id"), 0)
	if id == 0 {
		l.Warn(event, "status", 400, "reason", "id is not a positive integer", "id", c.Param("id"))
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func pageResponse(p *domain.TaskPage, page, size int) TaskListResponse {
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return TaskListResponse{
		Data: p.Items,
		Meta: PageMeta{
			Page:       page,
			Size:       limit,
			Total:      p.Total,
			TotalPages: (p.Total + int64(limit) - 1) / int64(limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < p.Total,
		},
	}
}

func (h *TaskHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.list")
	u, err := caller(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	category := util.ParseUintDefault(c.QueryParam("category_id"), 0)

	result, err := h.Svc.List(ctx, u, category, page, size)
	if err != nil {
		return fail(l, "list_tasks_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(result, page, size))
}

func (h *TaskHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.search")
	u, err := caller(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	result, err := h.Svc.SearchTasks(ctx, u, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_tasks_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(result, page, size))
}

func (h *TaskHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.get")
	u, err := caller(c)
	if err != nil {
		return err
	}
	id, err := taskID(c, l, "get_task_failed")
	if err != nil {
		return err
	}

	t, err := h.Svc.Get(ctx, u, id)
	if err != nil {
		return fail(l, "get_task_failed", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.create")
	u, err := caller(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_task_failed", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	t, err := h.Svc.Create(ctx, u, service.TaskInput{
		Name:          req.Name,
		PomodoroCount: req.PomodoroCount,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
	})
	if err != nil {
		return fail(l, "create_task_failed", err)
	}
	l.Info("task_created", "task_id", t.ID)
	return c.JSON(http.StatusCreated, t)
}

func (h *TaskHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.patch")
	u, err := caller(c)
	if err != nil {
		return err
	}
	id, err := taskID(c, l, "patch_task_failed")
	if err != nil {
		return err
	}

	var req PatchTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_task_failed", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	t, err := h.Svc.Patch(ctx, u, id, domain.TaskPatch{
		Name:          req.Name,
		PomodoroCount: req.PomodoroCount,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
	})
	if err != nil {
		return fail(l, "patch_task_failed", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.delete")
	u, err := caller(c)
	if err != nil {
		return err
	}
	id, err := taskID(c, l, "delete_task_failed")
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, u, id); err != nil {
		return fail(l, "delete_task_failed", err)
	}
	l.Info("task_deleted", "task_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHTTP) Restore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.restore")
	u, err := caller(c)
	if err != nil {
		return err
	}
	id, err := taskID(c, l, "restore_task_failed")
	if err != nil {
		return err
	}

	t, err := h.Svc.Restore(ctx, u, id)
	if err != nil {
		return fail(l, "restore_task_failed", err)
	}
	l.Info("task_restored", "task_id", id)
	return c.JSON(http.StatusOK, t)
}
