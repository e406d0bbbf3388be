package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/storage"
)

// Presigner issues presigned upload URLs.
type Presigner interface {
	PresignUpload(ctx context.Context, userID uint, fileName, contentType string, kind storage.MediaKind) (*storage.PresignedUpload, error)
}

type UploadHandler struct {
	presigner Presigner
}

// NewUploadHandler accepts a nil presigner; uploads then answer 503.
func NewUploadHandler(presigner Presigner) *UploadHandler {
	return &UploadHandler{presigner: presigner}
}

func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group) {
	g.POST("/uploads/presign", h.PresignUpload)
}

type PresignUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=200"`
	ContentType string `json:"contentType" validate:"required"`
	Type        string `json:"type" validate:"required"`
}

// PresignUpload returns a short-lived PUT URL and the public URL the file
// will have once uploaded.
func (h *UploadHandler) PresignUpload(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	if h.presigner == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media uploads are not configured")
	}

	var req PresignUploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	kind := storage.MediaKind(strings.ToLower(req.Type))
	upload, err := h.presigner.PresignUpload(c.Request().Context(), userID, req.FileName, req.ContentType, kind)
	switch {
	case errors.Is(err, storage.ErrUnsupportedKind):
		return echo.NewHTTPError(http.StatusBadRequest, "Type must be image or video")
	case errors.Is(err, storage.ErrUnsupportedContentType):
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported content type")
	case err != nil:
		return storeError(c, err, "Upload not found")
	}
	return success(c, http.StatusOK, upload)
}
