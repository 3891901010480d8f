package businessflow

import (
	"context"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleFlow serves the lightweight product catalogue used at the checkout screen.
// Only active products are visible.
type SaleFlow interface {
	ListSaleProducts(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.SaleProductResponse], error)
	SearchSaleProducts(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.SaleProductResponse], error)
}

// SaleFlowImpl implements the sale business flow
type SaleFlowImpl struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewSaleFlow creates a new sale flow instance
func NewSaleFlow(productRepo repository.ProductRepository, logger *zap.Logger) SaleFlow {
	return &SaleFlowImpl{productRepo: productRepo, logger: logger}
}

func activeProducts(storeID uuid.UUID) models.ProductFilter {
	return models.ProductFilter{StoreID: &storeID, Status: utils.ToPtr(true)}
}

func toSaleItems(rows []*models.Product) []dto.SaleProductResponse {
	items := make([]dto.SaleProductResponse, 0, len(rows))
	for _, p := range rows {
		items = append(items, ToSaleProductResponse(p))
	}
	return items
}

func (sf *SaleFlowImpl) ListSaleProducts(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.SaleProductResponse], error) {
	filter := activeProducts(storeID)
	total, err := sf.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, internal("LIST_SALE_PRODUCTS_FAILED", "Failed to get products", err)
	}

	orderBy := orderClause(productSortColumns, page.SortBy, page.SortOrder, "created_at")
	rows, err := sf.productRepo.ByFilter(ctx, filter, orderBy, page.Limit(), page.Offset())
	if err != nil {
		return nil, internal("LIST_SALE_PRODUCTS_FAILED", "Failed to get products", err)
	}

	resp := dto.NewPagination(toSaleItems(rows), total, max(page.Page, 1), page.Size)
	return &resp, nil
}

func (sf *SaleFlowImpl) SearchSaleProducts(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.SaleProductResponse], error) {
	if strings.TrimSpace(query) == "" {
		return sf.ListSaleProducts(ctx, storeID, page)
	}

	ranked, err := searchProducts(ctx, sf.productRepo, activeProducts(storeID), query)
	if err != nil {
		return nil, internal("SEARCH_SALE_PRODUCTS_FAILED", "Failed to search products", err)
	}
	logWith(ctx, sf.logger).Debug("Sale product search",
		zap.String("store_id", storeID.String()),
		zap.String("query", query),
		zap.Int("matches", len(ranked)))

	resp := dto.NewPagination(toSaleItems(pageOf(ranked, page.Offset(), page.Limit())), int64(len(ranked)), max(page.Page, 1), page.Size)
	return &resp, nil
}
