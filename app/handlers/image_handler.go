package handlers

import (
	"io"
	"net/url"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ImageHandler uploads and serves images
type ImageHandler struct {
	base
	imageFlow businessflow.ImageFlow
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageFlow businessflow.ImageFlow, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{base: newBase(logger), imageFlow: imageFlow}
}

// UploadImage stores an image as temporary until an entity references it
// @Summary Upload image
// @Description Uploads are deleted after 24h unless saved on a product, brand, customer, staff or store
// @Tags Images
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Param folder formData string false "Target folder" default(images)
// @Success 201 {object} dto.JSendResponse{data=dto.UploadImageResponse}
// @Failure 400 {object} dto.JSendResponse "Missing, oversized or non-image file"
// @Router /api/v1/images [post]
func (h *ImageHandler) UploadImage(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/images")
	defer cancel()

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return h.handleError(c, ctx, fieldErrors{"file": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.handleError(c, ctx, fieldErrors{"file": "invalid file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.handleError(c, ctx, fieldErrors{"file": "invalid file"})
	}

	resp, err := h.imageFlow.UploadImage(ctx, c.FormValue("folder"), fileHeader.Filename, data)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(resp))
}

// GetImage serves a stored image, or a JPEG preview with ?preview=true
// @Summary Get image
// @Tags Images
// @Produce image/jpeg,image/png,image/gif,image/webp,image/svg+xml
// @Param path path string true "Object path"
// @Param preview query bool false "Serve a downscaled JPEG preview"
// @Success 200 {file} file
// @Failure 404 {object} dto.JSendResponse "Image not found"
// @Router /api/v1/images/{path} [get]
func (h *ImageHandler) GetImage(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/images/*")
	defer cancel()

	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return h.handleError(c, ctx, fieldErrors{"path": "invalid path"})
	}

	data, contentType, err := h.imageFlow.GetImage(ctx, key, c.Query("preview") == "true")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}

// DeleteImage removes an uploaded image by its public URL
// @Summary Delete image
// @Tags Images
// @Produce json
// @Security BearerAuth
// @Param url query string true "Public image URL"
// @Success 200 {object} dto.JSendResponse{data=dto.MessageResponse}
// @Failure 404 {object} dto.JSendResponse "Image not found"
// @Router /api/v1/images [delete]
func (h *ImageHandler) DeleteImage(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/images")
	defer cancel()

	target := c.Query("url")
	if target == "" {
		return h.handleError(c, ctx, fieldErrors{"url": "url is required"})
	}

	if err := h.imageFlow.DeleteImage(ctx, target); err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.MessageResponse{Message: "Image deleted successfully"}))
}
