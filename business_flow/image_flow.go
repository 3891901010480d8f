package businessflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"go.uber.org/zap"
)

const defaultPreviewDimension = 512

// ImageFlow stores uploaded images and serves them back
type ImageFlow interface {
	UploadImage(ctx context.Context, folder, filename string, data []byte) (*dto.UploadImageResponse, error)
	GetImage(ctx context.Context, key string, preview bool) ([]byte, string, error)
	DeleteImage(ctx context.Context, url string) error
}

// ImageFlowImpl implements the image business flow
type ImageFlowImpl struct {
	storage    services.StorageService
	maxSize    int64
	previewDim int
	logger     *zap.Logger
}

// NewImageFlow creates a new image flow instance. maxSize is in bytes.
func NewImageFlow(storage services.StorageService, maxSize int64, previewDim int, logger *zap.Logger) ImageFlow {
	if previewDim <= 0 {
		previewDim = defaultPreviewDimension
	}
	return &ImageFlowImpl{
		storage:    storage,
		maxSize:    maxSize,
		previewDim: previewDim,
		logger:     logger,
	}
}

var contentTypeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// imageExtension prefers the uploaded file's extension, then the content type
func imageExtension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if ext, ok := contentTypeExtensions[contentType]; ok {
		return ext
	}
	return ".jpg"
}

// sniffImageType detects the content type. SVG is text so it is matched by name.
func sniffImageType(filename string, data []byte) string {
	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if strings.HasPrefix(contentType, "text/") && strings.EqualFold(filepath.Ext(filename), ".svg") {
		return "image/svg+xml"
	}
	return contentType
}

func (imf *ImageFlowImpl) UploadImage(ctx context.Context, folder, filename string, data []byte) (*dto.UploadImageResponse, error) {
	if len(data) == 0 {
		return nil, badRequest("IMAGE_REQUIRED", "Image file is required", ErrImageRequired)
	}
	if imf.maxSize > 0 && int64(len(data)) > imf.maxSize {
		return nil, badRequest("IMAGE_TOO_LARGE",
			fmt.Sprintf("Image size exceeds the maximum allowed size of %d bytes", imf.maxSize), ErrImageTooLarge)
	}

	contentType := sniffImageType(filename, data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, badRequest("NOT_AN_IMAGE", "File must be an image", ErrNotAnImage)
	}

	if strings.TrimSpace(folder) == "" {
		folder = utils.DefaultImageFolder
	}

	obj, err := imf.storage.Upload(ctx, folder, imageExtension(filename, contentType), contentType, data)
	if err != nil {
		return nil, internal("UPLOAD_IMAGE_FAILED", "Failed to upload image", err)
	}

	logWith(ctx, imf.logger).Info("Image uploaded",
		zap.String("key", obj.Key),
		zap.String("content_type", obj.ContentType),
		zap.Int64("size", obj.Size))

	return &dto.UploadImageResponse{
		URL:         obj.URL,
		Path:        obj.Key,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}, nil
}

// GetImage returns the stored bytes, or a JPEG preview when preview is set
func (imf *ImageFlowImpl) GetImage(ctx context.Context, key string, preview bool) ([]byte, string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return nil, "", notFound("IMAGE_NOT_FOUND", "Image not found", ErrImageNotFound)
	}

	if preview {
		data, err := imf.storage.Preview(ctx, key, imf.previewDim)
		switch {
		case errors.Is(err, services.ErrObjectNotFound):
			return nil, "", notFound("IMAGE_NOT_FOUND", "Image not found", ErrImageNotFound)
		case errors.Is(err, services.ErrPreviewUnsupported):
			return nil, "", badRequest("PREVIEW_NOT_AVAILABLE", "Preview is not available for this image", ErrPreviewNotViable)
		case err != nil:
			return nil, "", internal("GET_IMAGE_FAILED", "Failed to load image", err)
		}
		return data, "image/jpeg", nil
	}

	data, contentType, err := imf.storage.Read(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrObjectNotFound) {
			return nil, "", notFound("IMAGE_NOT_FOUND", "Image not found", ErrImageNotFound)
		}
		return nil, "", internal("GET_IMAGE_FAILED", "Failed to load image", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (imf *ImageFlowImpl) DeleteImage(ctx context.Context, url string) error {
	if _, ok := imf.storage.KeyFromURL(url); !ok {
		return notFound("IMAGE_NOT_FOUND", "Image not found", ErrImageNotFound)
	}
	if err := imf.storage.DeleteByURL(ctx, url); err != nil {
		if errors.Is(err, services.ErrObjectNotFound) {
			return notFound("IMAGE_NOT_FOUND", "Image not found", ErrImageNotFound)
		}
		return internal("DELETE_IMAGE_FAILED", "Failed to delete image", err)
	}
	return nil
}
