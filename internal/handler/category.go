package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
)

// ListCategories handles GET /api/category/.
func (h *Handler) ListCategories(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	cats, err := h.Categories.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

// CreateCategory handles POST /api/category/ with {name, point}.  Names are
// unique.
func (h *Handler) CreateCategory(c echo.Context) error {
	var req struct {
		Name  string `json:"name"`
		Point *int64 `json:"point"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := missingFields("name", req.Name != "", "point", req.Point != nil); msg != "" {
		return badRequest(c, msg)
	}
	if *req.Point < 0 || *req.Point > maxCategoryPoint {
		return badRequest(c, fmt.Sprintf("point must be between 0 and %d", maxCategoryPoint))
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	cat := model.ActionCategory{Name: req.Name, Point: *req.Point}
	if err := h.Categories.Create(ctx, &cat); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

// GetCategory handles GET /api/category/:id/.
func (h *Handler) GetCategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// ListCategoryActions handles GET /api/category/:id/action/.  Only verified
// actions are listed.
func (h *Handler) ListCategoryActions(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	actions, err := h.Actions.ListVerifiedByCategory(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, actions)
}

// TagAction handles POST /api/category/:id/action/ with {"action_id": n}.
func (h *Handler) TagAction(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	var req struct {
		ActionID *uint64 `json:"action_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := missingFields("action_id", req.ActionID != nil); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Actions.AddCategory(ctx, *req.ActionID, id); err != nil {
		return fail(c, err)
	}
	a, err := h.Actions.GetByID(ctx, *req.ActionID)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.actionView(ctx, a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// DeleteCategory handles DELETE /api/category/:id/.  Tagged actions keep
// existing but lose the tag.
func (h *Handler) DeleteCategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Categories.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return deleted(c)
}
