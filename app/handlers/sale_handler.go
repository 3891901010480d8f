package handlers

import (
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// SaleHandler serves the point of sale screen
type SaleHandler struct {
	base
	saleFlow   businessflow.SaleFlow
	reportFlow businessflow.ReportFlow
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleFlow businessflow.SaleFlow, reportFlow businessflow.ReportFlow, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{base: newBase(logger), saleFlow: saleFlow, reportFlow: reportFlow}
}

// ListSaleProducts lists the active products of a store
// @Summary List products for sale
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 1000)" default(100)
// @Param sort_by query string false "name, sellingPrice, purchasePrice, stockQuantity, createdAt or updatedAt"
// @Param sort_order query string false "asc or desc" default(desc)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.SaleProductResponse]}
// @Router /api/v1/stores/{store_id}/sales/products [get]
func (h *SaleHandler) ListSaleProducts(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/sales/products")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, productPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	products, err := h.saleFlow.ListSaleProducts(ctx, storeID, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(products))
}

// SearchSaleProducts ranks the active products of a store against q
// @Summary Search products for sale
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.SaleProductResponse]}
// @Router /api/v1/stores/{store_id}/sales/products/search [get]
func (h *SaleHandler) SearchSaleProducts(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/sales/products/search")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, productPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	products, err := h.saleFlow.SearchSaleProducts(ctx, storeID, c.Query("q"), page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(products))
}

// Summary reports revenue, transaction and customer counts over a period
// @Summary Sales summary
// @Description Dates use YYYY, YYYY-MM or YYYY-MM-DD in the store timezone. Both default to today.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param start_date query string false "Start of the period"
// @Param end_date query string false "End of the period"
// @Success 200 {object} dto.JSendResponse{data=dto.SummaryReportResponse}
// @Failure 400 {object} dto.JSendResponse "Invalid date"
// @Router /api/v1/stores/{store_id}/reports/summary [get]
func (h *SaleHandler) Summary(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/reports/summary")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	summary, err := h.reportFlow.Summary(ctx, storeID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(summary))
}
