package handlers

import (
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// CategoryHandler serves product categories
type CategoryHandler struct {
	base
	categoryFlow businessflow.CategoryFlow
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryFlow businessflow.CategoryFlow, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{base: newBase(logger), categoryFlow: categoryFlow}
}

// ListCategories lists the categories of a store
// @Summary List categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 1000)" default(100)
// @Param sort_by query string false "name, createdAt or updatedAt"
// @Param sort_order query string false "asc or desc" default(desc)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.CategoryResponse]}
// @Router /api/v1/stores/{store_id}/categories [get]
func (h *CategoryHandler) ListCategories(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/categories")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, catalogPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	categories, err := h.categoryFlow.ListCategories(ctx, storeID, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(categories))
}

// SearchCategories ranks categories against q
// @Summary Search categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.CategoryResponse]}
// @Router /api/v1/stores/{store_id}/categories/search [get]
func (h *CategoryHandler) SearchCategories(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/categories/search")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, catalogPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	categories, err := h.categoryFlow.SearchCategories(ctx, storeID, c.Query("q"), page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(categories))
}

// GetCategory returns one category with its product count
// @Summary Get category
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param category_id path string true "Category ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.CategoryResponse]}
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/categories/{category_id} [get]
func (h *CategoryHandler) GetCategory(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/categories/:category_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	categoryID, err := pathUUID(c, "category_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	category, err := h.categoryFlow.GetCategory(ctx, storeID, categoryID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(category)))
}

// CreateCategory adds a category
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} dto.JSendResponse{data=dto.ItemResponse[dto.CategoryResponse]}
// @Failure 400 {object} dto.JSendResponse "Category name already exists in this store"
// @Router /api/v1/stores/{store_id}/categories [post]
func (h *CategoryHandler) CreateCategory(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/categories")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.CreateCategoryRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	category, err := h.categoryFlow.CreateCategory(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(dto.NewItem(category)))
}

// UpdateCategory renames a category
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param category_id path string true "Category ID"
// @Param request body dto.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.CategoryResponse]}
// @Router /api/v1/stores/{store_id}/categories/{category_id} [put]
func (h *CategoryHandler) UpdateCategory(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/categories/:category_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	categoryID, err := pathUUID(c, "category_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.UpdateCategoryRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	category, err := h.categoryFlow.UpdateCategory(ctx, storeID, categoryID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(category)))
}

// DeleteCategory removes an unused category
// @Summary Delete category
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param category_id path string true "Category ID"
// @Success 200 {object} dto.JSendResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.JSendResponse "Cannot delete category that is being used by products"
// @Router /api/v1/stores/{store_id}/categories/{category_id} [delete]
func (h *CategoryHandler) DeleteCategory(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/categories/:category_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	categoryID, err := pathUUID(c, "category_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	if err := h.categoryFlow.DeleteCategory(ctx, storeID, categoryID); err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.MessageResponse{Message: "Category deleted successfully"}))
}

// BrandHandler serves product brands
type BrandHandler struct {
	base
	brandFlow businessflow.BrandFlow
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(brandFlow businessflow.BrandFlow, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{base: newBase(logger), brandFlow: brandFlow}
}

// ListBrands lists the brands of a store
// @Summary List brands
// @Tags Brands
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 1000)" default(100)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.BrandResponse]}
// @Router /api/v1/stores/{store_id}/brands [get]
func (h *BrandHandler) ListBrands(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/brands")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, catalogPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	brands, err := h.brandFlow.ListBrands(ctx, storeID, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(brands))
}

// SearchBrands ranks brands against q
// @Summary Search brands
// @Tags Brands
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.BrandResponse]}
// @Router /api/v1/stores/{store_id}/brands/search [get]
func (h *BrandHandler) SearchBrands(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/brands/search")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, catalogPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	brands, err := h.brandFlow.SearchBrands(ctx, storeID, c.Query("q"), page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(brands))
}

// GetBrand returns one brand
// @Summary Get brand
// @Tags Brands
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param brand_id path string true "Brand ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.BrandResponse]}
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/brands/{brand_id} [get]
func (h *BrandHandler) GetBrand(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/brands/:brand_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	brandID, err := pathUUID(c, "brand_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	brand, err := h.brandFlow.GetBrand(ctx, storeID, brandID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(brand)))
}

// CreateBrand adds a brand
// @Summary Create brand
// @Tags Brands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.CreateBrandRequest true "Brand"
// @Success 201 {object} dto.JSendResponse{data=dto.ItemResponse[dto.BrandResponse]}
// @Failure 400 {object} dto.JSendResponse "Brand name already exists in this store"
// @Router /api/v1/stores/{store_id}/brands [post]
func (h *BrandHandler) CreateBrand(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/brands")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.CreateBrandRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	brand, err := h.brandFlow.CreateBrand(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(dto.NewItem(brand)))
}

// UpdateBrand changes a brand's name or images
// @Summary Update brand
// @Tags Brands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param brand_id path string true "Brand ID"
// @Param request body dto.UpdateBrandRequest true "Fields to change"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.BrandResponse]}
// @Router /api/v1/stores/{store_id}/brands/{brand_id} [put]
func (h *BrandHandler) UpdateBrand(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/brands/:brand_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	brandID, err := pathUUID(c, "brand_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.UpdateBrandRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	brand, err := h.brandFlow.UpdateBrand(ctx, storeID, brandID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(brand)))
}

// DeleteBrand removes an unused brand
// @Summary Delete brand
// @Tags Brands
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param brand_id path string true "Brand ID"
// @Success 200 {object} dto.JSendResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.JSendResponse "Cannot delete brand that is being used by products"
// @Router /api/v1/stores/{store_id}/brands/{brand_id} [delete]
func (h *BrandHandler) DeleteBrand(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/brands/:brand_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	brandID, err := pathUUID(c, "brand_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	if err := h.brandFlow.DeleteBrand(ctx, storeID, brandID); err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.MessageResponse{Message: "Brand deleted successfully"}))
}
