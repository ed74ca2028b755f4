package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageUploadResult mirrors what image messages need: the hosted URL plus the
// dimensions and size the client renders placeholders with.
type ImageUploadResult struct {
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{cld: cld}, nil
}

// UploadImage uploads an image for a bonfire message and returns the hosted
// URL with dimensions. Compression happens on the device before upload; this
// is only the hand-off to object storage.
func (s *CloudinaryService) UploadImage(ctx context.Context, file multipart.File, folder string) (*ImageUploadResult, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return &ImageUploadResult{
		URL:       uploadResult.SecureURL,
		Width:     uploadResult.Width,
		Height:    uploadResult.Height,
		SizeBytes: int64(uploadResult.Bytes),
	}, nil
}

// UploadImageFromHeader opens and uploads a multipart file header.
func (s *CloudinaryService) UploadImageFromHeader(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*ImageUploadResult, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.UploadImage(ctx, file, folder)
}
