package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
	"github.com/warmersun/warmersun-api/internal/queue"
	"github.com/warmersun/warmersun-api/internal/repository"
)

type actionReq struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	MinuteDuration *int64     `json:"minute_duration"`
	Time           *time.Time `json:"time"`
	UserIDs        []uint64   `json:"user_ids"`
	CategoryIDs    []uint64   `json:"category_ids"`
}

// ListSpotActions handles GET /api/spot/:id/action/.  Only verified actions
// are listed.
func (h *Handler) ListSpotActions(c echo.Context) error {
	spotID, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	actions, err := h.Actions.ListVerifiedBySpot(ctx, spotID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, actions)
}

// CreateAction handles POST /api/spot/:id/action/.  New actions start
// unverified and earn nothing until verified.
func (h *Handler) CreateAction(c echo.Context) error {
	spotID, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	var req actionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if msg := missingFields(
		"title", req.Title != "",
		"description", req.Description != "",
		"minute_duration", req.MinuteDuration != nil,
	); msg != "" {
		return badRequest(c, msg)
	}
	if *req.MinuteDuration < 0 || *req.MinuteDuration > maxMinuteDuration {
		return badRequest(c, fmt.Sprintf("minute_duration must be between 0 and %d", maxMinuteDuration))
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	a := model.Action{
		Title:          req.Title,
		Description:    req.Description,
		SpotID:         spotID,
		MinuteDuration: *req.MinuteDuration,
	}
	if req.Time != nil {
		a.Time = *req.Time
	}
	if err := h.Actions.Create(ctx, &a, req.UserIDs, req.CategoryIDs); err != nil {
		return fail(c, err)
	}
	v, err := h.actionView(ctx, &a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// GetAction handles GET /api/action/:id/.
func (h *Handler) GetAction(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	a, err := h.Actions.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.actionView(ctx, a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// AddActionUser handles POST /api/action/:id/user/ with {"user_id": n}.
func (h *Handler) AddActionUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	var req struct {
		UserID *uint64 `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := missingFields("user_id", req.UserID != nil); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Actions.AddUser(ctx, id, *req.UserID); err != nil {
		return fail(c, err)
	}
	a, err := h.Actions.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.actionView(ctx, a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// VerifyAction handles POST /api/action/:id/verify/.  It credits every
// participant once and publishes an action.verified event when events are
// enabled.
func (h *Handler) VerifyAction(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	a, err := h.Actions.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	res, err := h.Actions.Verify(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	a.IsVerified = true
	h.publishVerified(a, res)
	return c.JSON(http.StatusOK, h.verifiedActionBody(ctx, c, a))
}

// verifiedActionBody renders the detail view of a just verified action.
// The credit is committed at this point, so a failed lookup only trims the
// response down to the action row.
func (h *Handler) verifiedActionBody(ctx context.Context, c echo.Context, a *model.Action) any {
	v, err := h.actionView(ctx, a)
	if err != nil {
		c.Logger().Warnf("verify action %d: committed, detail view failed: %v", a.ID, err)
		return a
	}
	return v
}

// publishVerified sends the event in the background.  The credit is already
// committed, so a broker failure only loses the ledger line.
func (h *Handler) publishVerified(a *model.Action, res *repository.VerifyResult) {
	if h.Events == nil {
		return
	}
	ev := queue.ActionVerifiedEvent{
		ActionID:       a.ID,
		Title:          a.Title,
		SpotID:         a.SpotID,
		Rate:           res.Rate,
		MinuteDuration: res.MinuteDuration,
		Points:         res.Points,
		UserIDs:        res.UserIDs,
		VerifiedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Events.PublishActionVerified(ctx, ev); err != nil {
			log.Printf("events: action %d: %v", ev.ActionID, err)
		}
	}()
}

// DeleteAction handles DELETE /api/action/:id/.
func (h *Handler) DeleteAction(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Actions.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return deleted(c)
}
