package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/service"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "categories.list")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CategoryHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "categories.create")

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_category_failed", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cat, err := h.Svc.Create(ctx, req.Name, req.Description)
	if err != nil {
		return fail(l, "create_category_failed", err)
	}
	l.Info("category_created", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}
