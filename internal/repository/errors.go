// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Every
// entity specific "not found" error wraps ErrNotFound so handlers can
// map the whole family to a 404 with a single errors.Is check while
// still reporting which entity was missing.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is the parent of every entity specific not-found error.
var ErrNotFound = errors.New("not found")

var (
	ErrParkNotFound         = notFound("park")
	ErrSpotNotFound         = notFound("spot")
	ErrActionNotFound       = notFound("action")
	ErrCategoryNotFound     = notFound("category")
	ErrUserNotFound         = notFound("user")
	ErrShoppingItemNotFound = notFound("shopping item")
	ErrNoImages             = notFound("images")
)

// ErrAlreadyExists is returned when an insert hits a unique key, such as a
// second category with the same name or a duplicate username. Handlers
// translate this into an HTTP 400 response.
var ErrAlreadyExists = errors.New("already exists")

// ErrAlreadyVerified is returned when an action is verified twice. The
// stored state is left untouched.
var ErrAlreadyVerified = errors.New("already verified")

// ErrInvalidState is returned when an operation cannot run against the
// current data, e.g. verifying an action that has no categories and
// therefore no point rate.
var ErrInvalidState = errors.New("invalid state")

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}
