package handler

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/infrastructure/storage"
	"swapspot/pkg/response"
)

type UploadHandler struct {
	storageClient *storage.CloudStorageClient
}

func NewUploadHandler(storageClient *storage.CloudStorageClient) *UploadHandler {
	return &UploadHandler{
		storageClient: storageClient,
	}
}

type signURLRequest struct {
	FileType string `json:"file_type" validate:"required,oneof=image/jpeg image/png image/webp"`
	Folder   string `json:"folder" validate:"omitempty,oneof=listings avatars chat"`
}

// SignUploadURL hands the client a short-lived PUT URL so image bytes never
// flow through this service.
func (h *UploadHandler) SignUploadURL(c echo.Context) error {
	var req signURLRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if req.Folder == "" {
		req.Folder = "listings"
	}

	url, err := h.storageClient.GenerateSignedUploadURL(c.Request().Context(), req.FileType, req.Folder)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"upload_url": url,
	})
}
