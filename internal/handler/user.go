package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ListUsers handles GET /api/users/.
func (h *Handler) ListUsers(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/users/.  The password is stored as a salted
// PBKDF2 hash.
func (h *Handler) CreateUser(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if msg := missingFields("username", req.Username != "", "password", req.Password != ""); msg != "" {
		return badRequest(c, msg)
	}
	// GET /api/users/:id/ reads a numeric reference as an id.
	if _, err := strconv.ParseUint(req.Username, 10, 64); err == nil {
		return badRequest(c, "username must not be a number")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.Create(ctx, req.Username, h.Hasher.Hash(req.Password))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, userView{User: *u, Actions: []model.Action{}})
}

// GetUser handles GET /api/users/:id/.  A numeric reference is looked up as
// an id, anything else as a username.
func (h *Handler) GetUser(c echo.Context) error {
	ref := c.Param("id")
	ctx, cancel := dbCtx(c)
	defer cancel()

	var (
		u   *model.User
		err error
	)
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil {
		u, err = h.Users.GetByID(ctx, id)
	} else {
		u, err = h.Users.GetByUsername(ctx, ref)
	}
	if err != nil {
		return fail(c, err)
	}
	v, err := h.userView(ctx, u)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteUser handles DELETE /api/users/:id/.
func (h *Handler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return deleted(c)
}

// VerifyCredentials handles POST /api/users/verify/.  It only checks the
// password; no session or token is issued.
func (h *Handler) VerifyCredentials(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if msg := missingFields("username", req.Username != "", "password", req.Password != ""); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		return fail(c, err)
	}
	if !h.Hasher.Verify(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusForbidden, echo.Map{"verify": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"verify": true, "user_id": u.ID})
}
