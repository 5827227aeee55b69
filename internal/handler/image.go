package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/model"
)

// ListImages returns a handler for GET /api/<owner>/:id/image/.
func (h *Handler) ListImages(kind model.OwnerKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		ctx, cancel := dbCtx(c)
		defer cancel()
		imgs, err := h.Images.ListByOwner(ctx, kind, id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, imgs)
	}
}

// AttachImage returns a handler for POST /api/<owner>/:id/image/.  The
// image comes from the multipart field "image" or the raw body and is
// stored base64 encoded.
func (h *Handler) AttachImage(kind model.OwnerKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		data, err := readUpload(c, h.MaxUploadBytes, "image")
		if err != nil {
			return uploadFailed(c, err, "image", h.MaxUploadBytes)
		}
		ctx, cancel := dbCtx(c)
		defer cancel()
		img, err := h.Images.Create(ctx, kind, id, base64.StdEncoding.EncodeToString(data))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusCreated, img)
	}
}
