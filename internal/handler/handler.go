// Package handler implements the HTTP handlers.  Handlers validate input,
// call a repository and reply with JSON.  Errors use the {"error": msg}
// envelope.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/queue"
	"github.com/warmersun/warmersun-api/internal/repository"
	"github.com/warmersun/warmersun-api/internal/utils"
)

// dbTimeout bounds every repository call made while serving a request.
const dbTimeout = 5 * time.Second

// Upper bounds for the inputs of the points product.  A week-long action
// at the highest rate credits about 10^8 points.
const (
	maxMinuteDuration = 7 * 24 * 60
	maxCategoryPoint  = 10_000
)

// EventPublisher delivers verification events.  *service.Publisher
// satisfies it.
type EventPublisher interface {
	PublishActionVerified(ctx context.Context, ev queue.ActionVerifiedEvent) error
}

// Handler bundles the repositories and settings every endpoint needs.
type Handler struct {
	Parks      *repository.ParkRepo
	Spots      *repository.SpotRepo
	Actions    *repository.ActionRepo
	Categories *repository.CategoryRepo
	Users      *repository.UserRepo
	Items      *repository.ShoppingItemRepo
	Images     *repository.ImageRepo

	Hasher         utils.PasswordHasher
	MaxUploadBytes int64
	Events         EventPublisher // nil disables publishing
}

// Repos groups the repositories passed to New.
type Repos struct {
	Parks      *repository.ParkRepo
	Spots      *repository.SpotRepo
	Actions    *repository.ActionRepo
	Categories *repository.CategoryRepo
	Users      *repository.UserRepo
	Items      *repository.ShoppingItemRepo
	Images     *repository.ImageRepo
}

// New constructs a Handler and panics if any repository is nil.
func New(r Repos, hasher utils.PasswordHasher, maxUpload int64, events EventPublisher) *Handler {
	if r.Parks == nil || r.Spots == nil || r.Actions == nil || r.Categories == nil ||
		r.Users == nil || r.Items == nil || r.Images == nil {
		panic("nil repository passed to handler.New")
	}
	return &Handler{
		Parks:          r.Parks,
		Spots:          r.Spots,
		Actions:        r.Actions,
		Categories:     r.Categories,
		Users:          r.Users,
		Items:          r.Items,
		Images:         r.Images,
		Hasher:         hasher,
		MaxUploadBytes: maxUpload,
		Events:         events,
	}
}

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// missingFields returns a message naming every absent field, or "" when all
// are present.  fields alternates name and presence.
func missingFields(fields ...any) string {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if ok, _ := fields[i+1].(bool); !ok {
			missing = append(missing, fields[i].(string))
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "missing required fields: " + strings.Join(missing, ", ")
}

// fail maps repository errors onto status codes.  Unknown errors are
// logged and reported as 500 without leaking details.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrAlreadyVerified),
		errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "timeout"})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// deleted is the body returned by every successful delete.
func deleted(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{})
}
