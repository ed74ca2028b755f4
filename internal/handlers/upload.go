package handlers

import (
	"net/http"
	"strings"

	"github.com/bonfireapp/bonfire-backend/internal/config"
	"github.com/bonfireapp/bonfire-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

type UploadResponse struct {
	Success bool                        `json:"success"`
	Message string                      `json:"message"`
	Image   *services.ImageUploadResult `json:"image,omitempty"`
}

// UploadImage accepts a multipart image and stores it in Cloudinary. The
// returned URL and dimensions go into the subsequent image message over the
// WebSocket. Images only; clients compress before upload.
func UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	if cloudinaryService == nil {
		writeMessage(w, http.StatusServiceUnavailable, false, "image uploads are not available")
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "failed to parse form: "+err.Error())
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "no file provided")
		return
	}
	defer file.Close()

	if ct := fileHeader.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		writeMessage(w, http.StatusBadRequest, false, "only image uploads are accepted")
		return
	}

	result, err := cloudinaryService.UploadImageFromHeader(r.Context(), fileHeader, "bonfire_images")
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "failed to upload image")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "image uploaded successfully",
		Image:   result,
	})
}
