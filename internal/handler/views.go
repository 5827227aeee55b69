package handler

import (
	"context"

	"github.com/warmersun/warmersun-api/internal/model"
)

// Response shapes.  Detail views embed their row and add related rows;
// nested relations are summaries so responses never recurse.

type userSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

type parkView struct {
	model.Park
	Spots []model.Spot `json:"spots"`
}

type spotView struct {
	model.Spot
	Park    *model.Park    `json:"park"`
	Actions []model.Action `json:"actions"`
}

type actionView struct {
	model.Action
	Spot       *model.Spot            `json:"spot"`
	Users      []userSummary          `json:"users"`
	Categories []model.ActionCategory `json:"categories"`
}

type userView struct {
	model.User
	Actions []model.Action `json:"actions"`
}

func summarize(users []model.User) []userSummary {
	out := make([]userSummary, len(users))
	for i, u := range users {
		out[i] = userSummary{ID: u.ID, Username: u.Username}
	}
	return out
}

func (h *Handler) parkView(ctx context.Context, p *model.Park) (parkView, error) {
	spots, err := h.Spots.ListVerifiedByPark(ctx, p.ID)
	if err != nil {
		return parkView{}, err
	}
	return parkView{Park: *p, Spots: spots}, nil
}

func (h *Handler) spotView(ctx context.Context, s *model.Spot) (spotView, error) {
	park, err := h.Parks.GetByID(ctx, s.ParkID)
	if err != nil {
		return spotView{}, err
	}
	actions, err := h.Actions.ListVerifiedBySpot(ctx, s.ID)
	if err != nil {
		return spotView{}, err
	}
	return spotView{Spot: *s, Park: park, Actions: actions}, nil
}

func (h *Handler) actionView(ctx context.Context, a *model.Action) (actionView, error) {
	spot, err := h.Spots.GetByID(ctx, a.SpotID)
	if err != nil {
		return actionView{}, err
	}
	users, err := h.Actions.Users(ctx, a.ID)
	if err != nil {
		return actionView{}, err
	}
	cats, err := h.Actions.Categories(ctx, a.ID)
	if err != nil {
		return actionView{}, err
	}
	return actionView{Action: *a, Spot: spot, Users: summarize(users), Categories: cats}, nil
}

func (h *Handler) userView(ctx context.Context, u *model.User) (userView, error) {
	actions, err := h.Actions.ListByUser(ctx, u.ID)
	if err != nil {
		return userView{}, err
	}
	return userView{User: *u, Actions: actions}, nil
}
