// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"log"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/warmersun/warmersun-api/internal/config"
	"github.com/warmersun/warmersun-api/internal/handler"
	"github.com/warmersun/warmersun-api/internal/middleware"
	"github.com/warmersun/warmersun-api/internal/model"
	"github.com/warmersun/warmersun-api/internal/utils"
)

// Options carries the optional pieces of the stack.  A nil Redis client
// turns the cache and the rate limiter into pass-through middleware; an
// empty AuthoritySecret leaves the verify routes open.
type Options struct {
	Redis           *redis.Client
	Cache           config.CacheConfig
	RateLimit       config.RateLimitConfig
	AuthoritySecret string
}

// New builds the Echo instance with every route registered.
func New(h *handler.Handler, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Routes are registered with a trailing slash; this makes it optional.
	e.Pre(echomw.AddTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogRequestID: true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: id=%s method=%s uri=%s status=%d latency=%s",
				v.RequestID, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORS())

	e.GET("/healthz/", handler.Health)
	RegisterAPI(e, h, opts)
	return e
}

// RegisterAPI mounts the resource routes under /api.
func RegisterAPI(e *echo.Echo, h *handler.Handler, opts Options) {
	api := e.Group("/api",
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis),
		middleware.NewRedisCache(opts.Cache, opts.Redis),
	)

	// Verification changes what the public sees and credits points, so it
	// can be restricted to AUTHORITY tokens.
	var verify []echo.MiddlewareFunc
	if opts.AuthoritySecret != "" {
		verify = append(verify, middleware.JWTAuth(opts.AuthoritySecret), middleware.RequireRole(utils.RoleAuthority))
	}

	api.GET("/park/", h.ListParks)
	api.POST("/park/", h.CreatePark)
	api.GET("/park/:id/", h.GetPark)
	api.DELETE("/park/:id/", h.DeletePark)
	api.GET("/park/:id/spot/", h.ListParkSpots)
	api.POST("/park/:id/spot/", h.CreateSpot)

	api.GET("/spot/:id/", h.GetSpot)
	api.DELETE("/spot/:id/", h.DeleteSpot)
	api.POST("/spot/:id/verify/", h.VerifySpot, verify...)
	api.GET("/spot/:id/image/", h.ListImages(model.OwnerSpot))
	api.POST("/spot/:id/image/", h.AttachImage(model.OwnerSpot))
	api.GET("/spot/:id/action/", h.ListSpotActions)
	api.POST("/spot/:id/action/", h.CreateAction)

	api.GET("/action/:id/", h.GetAction)
	api.DELETE("/action/:id/", h.DeleteAction)
	api.POST("/action/:id/verify/", h.VerifyAction, verify...)
	api.POST("/action/:id/user/", h.AddActionUser)
	api.GET("/action/:id/image/", h.ListImages(model.OwnerAction))
	api.POST("/action/:id/image/", h.AttachImage(model.OwnerAction))

	api.GET("/category/", h.ListCategories)
	api.POST("/category/", h.CreateCategory)
	api.GET("/category/:id/", h.GetCategory)
	api.DELETE("/category/:id/", h.DeleteCategory)
	api.GET("/category/:id/action/", h.ListCategoryActions)
	api.POST("/category/:id/action/", h.TagAction)

	api.GET("/shopping_item/", h.ListShoppingItems)
	api.POST("/shopping_item/", h.CreateShoppingItem)
	api.GET("/shopping_item/:id/", h.GetShoppingItem)
	api.DELETE("/shopping_item/:id/", h.DeleteShoppingItem)
	api.GET("/shopping_item/:id/image/", h.ListImages(model.OwnerShoppingItem))
	api.POST("/shopping_item/:id/image/", h.AttachImage(model.OwnerShoppingItem))

	api.GET("/users/", h.ListUsers)
	api.POST("/users/", h.CreateUser)
	api.POST("/users/verify/", h.VerifyCredentials)
	api.GET("/users/:id/", h.GetUser)
	api.DELETE("/users/:id/", h.DeleteUser)
	api.GET("/users/:id/image/", h.ListImages(model.OwnerUser))
	api.POST("/users/:id/image/", h.AttachImage(model.OwnerUser))

	api.POST("/analyze/", h.Analyze)
}
