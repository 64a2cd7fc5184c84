package handler

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/dstav/slate/internal/blob"
	"github.com/dstav/slate/internal/middleware"
)

// UploadHandler accepts image uploads referenced by notes. The stored name
// is randomized; clients get back the public URL to attach to a note.
type UploadHandler struct {
	Blobs blob.Store
}

func NewUploadHandler(blobs blob.Store) *UploadHandler {
	return &UploadHandler{Blobs: blobs}
}

// Upload handles POST /v1/uploads with a multipart "file" part. Only image
// extensions are accepted.
func (h *UploadHandler) Upload(c echo.Context) error {
	if _, ok := middleware.Username(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file provided"})
	}
	ext := filepath.Ext(fh.Filename)
	if !blob.AllowedExt(ext) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported file type"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read upload failed"})
	}
	defer src.Close()

	ref, err := h.Blobs.Save(src, ext)
	if err != nil {
		if err == blob.ErrUnsupportedType {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported file type"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save upload failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": ref})
}
