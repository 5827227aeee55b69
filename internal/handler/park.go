package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
)

type parkReq struct {
	Name      string   `json:"name"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// ListParks handles GET /api/park/.
func (h *Handler) ListParks(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	parks, err := h.Parks.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, parks)
}

// CreatePark handles POST /api/park/.
func (h *Handler) CreatePark(c echo.Context) error {
	var req parkReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := missingFields("name", req.Name != "", "longitude", req.Longitude != nil, "latitude", req.Latitude != nil); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	p := model.Park{Name: req.Name, Longitude: *req.Longitude, Latitude: *req.Latitude}
	if err := h.Parks.Create(ctx, &p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, parkView{Park: p, Spots: []model.Spot{}})
}

// GetPark handles GET /api/park/:id/ and includes the park's verified spots.
func (h *Handler) GetPark(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	p, err := h.Parks.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.parkView(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeletePark handles DELETE /api/park/:id/ and cascades to spots, actions
// and images.
func (h *Handler) DeletePark(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Parks.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return deleted(c)
}
