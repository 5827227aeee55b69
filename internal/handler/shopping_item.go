package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
)

func (h *Handler) ListShoppingItems(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	items, err := h.Items.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateShoppingItem handles POST /api/shopping_item/ with {name, price,
// description?}.
func (h *Handler) CreateShoppingItem(c echo.Context) error {
	var req struct {
		Name        string   `json:"name"`
		Price       *float64 `json:"price"`
		Description string   `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := missingFields("name", req.Name != "", "price", req.Price != nil); msg != "" {
		return badRequest(c, msg)
	}
	if *req.Price < 0 {
		return badRequest(c, "price must not be negative")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	it := model.ShoppingItem{Name: req.Name, Price: *req.Price, Description: req.Description}
	if err := h.Items.Create(ctx, &it); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) GetShoppingItem(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	it, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteShoppingItem(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Items.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return deleted(c)
}
