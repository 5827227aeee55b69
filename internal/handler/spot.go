package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
)

type spotReq struct {
	Name        string   `json:"name"`
	Longitude   *float64 `json:"longitude"`
	Latitude    *float64 `json:"latitude"`
	SuggesterID *uint64  `json:"suggester_id"`
}

// ListParkSpots handles GET /api/park/:id/spot/.  Only verified spots are
// listed.
func (h *Handler) ListParkSpots(c echo.Context) error {
	parkID, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	spots, err := h.Spots.ListVerifiedByPark(ctx, parkID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, spots)
}

// CreateSpot handles POST /api/park/:id/spot/.  A spot created with a
// suggester_id waits for verification; without one it is verified at once.
func (h *Handler) CreateSpot(c echo.Context) error {
	parkID, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	var req spotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := missingFields("name", req.Name != "", "longitude", req.Longitude != nil, "latitude", req.Latitude != nil); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	s := model.NewSpot(parkID, req.Name, *req.Longitude, *req.Latitude, req.SuggesterID)
	if err := h.Spots.Create(ctx, &s); err != nil {
		return fail(c, err)
	}
	v, err := h.spotView(ctx, &s)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// GetSpot handles GET /api/spot/:id/.  Unverified spots are returned too.
func (h *Handler) GetSpot(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	s, err := h.Spots.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.spotView(ctx, s)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// VerifySpot handles POST /api/spot/:id/verify/.  Repeating it is a no-op.
func (h *Handler) VerifySpot(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Spots.Verify(ctx, id); err != nil {
		return fail(c, err)
	}
	s, err := h.Spots.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.spotView(ctx, s)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteSpot handles DELETE /api/spot/:id/.
func (h *Handler) DeleteSpot(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Spots.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return deleted(c)
}
