package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	errNoUpload     = errors.New("no upload")
	errUploadTooBig = errors.New("upload too large")
)

// readUpload returns the uploaded bytes from the first present multipart
// field in fields, or from the raw body for any other content type.  At
// most limit bytes are accepted.
func readUpload(c echo.Context, limit int64, fields ...string) ([]byte, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit+(1<<20)) // room for multipart framing

	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		data, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, errUploadTooBig
			}
			return nil, err
		}
		return checkSize(data, limit)
	}

	for _, name := range fields {
		fh, err := c.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, errUploadTooBig
			}
			return nil, err
		}
		if fh.Size > limit {
			return nil, errUploadTooBig
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		return checkSize(data, limit)
	}
	return nil, errNoUpload
}

func checkSize(data []byte, limit int64) ([]byte, error) {
	if int64(len(data)) > limit {
		return nil, errUploadTooBig
	}
	if len(data) == 0 {
		return nil, errNoUpload
	}
	return data, nil
}

// uploadFailed renders readUpload errors.
func uploadFailed(c echo.Context, err error, field string, limit int64) error {
	switch {
	case errors.Is(err, errNoUpload):
		return badRequest(c, "missing required fields: "+field)
	case errors.Is(err, errUploadTooBig):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": fmt.Sprintf("upload exceeds %d bytes", limit)})
	}
	return badRequest(c, "invalid upload")
}
