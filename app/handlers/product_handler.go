package handlers

import (
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ProductHandler serves the product catalogue of a store
type ProductHandler struct {
	base
	productFlow businessflow.ProductFlow
}

// NewProductHandler creates a new product handler
func NewProductHandler(productFlow businessflow.ProductFlow, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{base: newBase(logger), productFlow: productFlow}
}

// ListProducts lists the products of a store
// @Summary List products
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 1000)" default(100)
// @Param sort_by query string false "name, sellingPrice, purchasePrice, stockQuantity, createdAt or updatedAt" default(createdAt)
// @Param sort_order query string false "asc or desc" default(desc)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.ProductResponse]}
// @Failure 422 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/products [get]
func (h *ProductHandler) ListProducts(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/products")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, productPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	products, err := h.productFlow.ListProducts(ctx, storeID, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(products))
}

// SearchProducts ranks products against q
// @Summary Search products
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 1000)" default(100)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.ProductResponse]}
// @Router /api/v1/stores/{store_id}/products/search [get]
func (h *ProductHandler) SearchProducts(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/products/search")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, productPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	products, err := h.productFlow.SearchProducts(ctx, storeID, c.Query("q"), page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(products))
}

// GetProduct returns one product
// @Summary Get product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param product_id path string true "Product ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.ProductResponse]}
// @Failure 404 {object} dto.JSendResponse "Product not found"
// @Router /api/v1/stores/{store_id}/products/{product_id} [get]
func (h *ProductHandler) GetProduct(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/products/:product_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	productID, err := pathUUID(c, "product_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	product, err := h.productFlow.GetProduct(ctx, storeID, productID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(product)))
}

// CreateProduct adds a product to the store
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.CreateProductRequest true "Product"
// @Success 201 {object} dto.JSendResponse{data=dto.ItemResponse[dto.ProductResponse]}
// @Failure 404 {object} dto.JSendResponse "Brand or category not found"
// @Failure 422 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/products [post]
func (h *ProductHandler) CreateProduct(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/products")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.CreateProductRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	product, err := h.productFlow.CreateProduct(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(dto.NewItem(product)))
}

// UpdateProduct partially updates a product
// @Summary Update product
// @Description Omitted fields are kept. brand or category set to null clears the reference.
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param product_id path string true "Product ID"
// @Param request body dto.UpdateProductRequest true "Fields to change"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.ProductResponse]}
// @Failure 400 {object} dto.JSendResponse "Cannot change product store"
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/products/{product_id} [put]
func (h *ProductHandler) UpdateProduct(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/products/:product_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	productID, err := pathUUID(c, "product_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.UpdateProductRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	product, err := h.productFlow.UpdateProduct(ctx, storeID, productID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(product)))
}

// DeleteProduct removes a product
// @Summary Delete product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param product_id path string true "Product ID"
// @Success 200 {object} dto.JSendResponse{data=bool}
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/products/{product_id} [delete]
func (h *ProductHandler) DeleteProduct(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/products/:product_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	productID, err := pathUUID(c, "product_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	if err := h.productFlow.DeleteProduct(ctx, storeID, productID); err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(true))
}
