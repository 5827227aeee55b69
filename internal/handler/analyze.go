package handler

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warmersun/warmersun-api/internal/heatmap"
)

// Analyze handles POST /api/analyze/.  It reads a CSV of latitude,
// longitude and optional pollution samples (multipart field "file" or raw
// body) and replies with an HTML heatmap page.
func (h *Handler) Analyze(c echo.Context) error {
	data, err := readUpload(c, h.MaxUploadBytes, "file", "csv")
	if err != nil {
		return uploadFailed(c, err, "file", h.MaxUploadBytes)
	}
	pts, err := heatmap.Parse(bytes.NewReader(data))
	if err != nil {
		return badRequest(c, err.Error())
	}
	var buf bytes.Buffer
	if err := heatmap.Render(&buf, pts); err != nil {
		return fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
