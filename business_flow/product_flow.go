package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Product paging defaults
const (
	DefaultProductPageSize = 100
	MaxProductPageSize     = 1000
	DefaultProductSortBy   = "createdAt"
)

var productSortColumns = map[string]string{
	"name":          "name",
	"sellingPrice":  "selling_price",
	"purchasePrice": "purchase_price",
	"stockQuantity": "stock_quantity",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

// ProductSortFields lists the accepted sort_by values for products
func ProductSortFields() []string {
	return []string{"name", "sellingPrice", "purchasePrice", "stockQuantity", "createdAt", "updatedAt"}
}

// ProductCacheInvalidator drops the cached product list of a store
type ProductCacheInvalidator interface {
	InvalidateStoreProducts(ctx context.Context, storeID uuid.UUID)
}

// ProductFlow handles the product catalogue of a store
type ProductFlow interface {
	ProductCacheInvalidator
	ListProducts(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.ProductResponse], error)
	SearchProducts(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.ProductResponse], error)
	GetProduct(ctx context.Context, storeID, productID uuid.UUID) (*dto.ProductResponse, error)
	CreateProduct(ctx context.Context, storeID uuid.UUID, req *dto.CreateProductRequest) (*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, req *dto.UpdateProductRequest) (*dto.ProductResponse, error)
	DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error
}

// ProductFlowImpl implements the product business flow
type ProductFlowImpl struct {
	productRepo  repository.ProductRepository
	brandRepo    repository.BrandRepository
	categoryRepo repository.CategoryRepository
	storage      services.StorageService
	cache        services.CacheService
	cacheTTL     time.Duration
	warmupDelay  time.Duration
	logger       *zap.Logger
}

// NewProductFlow creates a new product flow instance. A zero warmupDelay
// disables re-filling the cache after invalidation.
func NewProductFlow(
	productRepo repository.ProductRepository,
	brandRepo repository.BrandRepository,
	categoryRepo repository.CategoryRepository,
	storage services.StorageService,
	cache services.CacheService,
	cacheTTL time.Duration,
	warmupDelay time.Duration,
	logger *zap.Logger,
) ProductFlow {
	if cacheTTL <= 0 {
		cacheTTL = utils.StoreProductsTTL
	}
	return &ProductFlowImpl{
		productRepo:  productRepo,
		brandRepo:    brandRepo,
		categoryRepo: categoryRepo,
		storage:      storage,
		cache:        cache,
		cacheTTL:     cacheTTL,
		warmupDelay:  warmupDelay,
		logger:       logger,
	}
}

func storeProductsKey(storeID uuid.UUID) string {
	return utils.StoreProductsKeyPrefix + ":" + storeID.String()
}

// isDefaultListing reports whether the page is the cached one
func isDefaultListing(page dto.PageQuery) bool {
	sortBy := page.SortBy
	if sortBy == "" {
		sortBy = DefaultProductSortBy
	}
	return page.Page <= 1 &&
		page.Size == DefaultProductPageSize &&
		sortBy == DefaultProductSortBy &&
		!strings.EqualFold(page.SortOrder, "asc")
}

func (pf *ProductFlowImpl) ListProducts(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.ProductResponse], error) {
	cacheable := pf.cache != nil && pf.cache.Enabled() && isDefaultListing(page)
	if cacheable {
		var cached dto.PaginationResponse[dto.ProductResponse]
		if pf.cache.Get(ctx, storeProductsKey(storeID), &cached) {
			return &cached, nil
		}
	}

	resp, err := pf.loadPage(ctx, storeID, page)
	if err != nil {
		return nil, internal("LIST_PRODUCTS_FAILED", "Failed to get products", err)
	}
	if cacheable {
		pf.cache.Set(ctx, storeProductsKey(storeID), resp, pf.cacheTTL)
	}
	return resp, nil
}

func (pf *ProductFlowImpl) loadPage(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.ProductResponse], error) {
	filter := models.ProductFilter{StoreID: &storeID}
	total, err := pf.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	orderBy := orderClause(productSortColumns, page.SortBy, page.SortOrder, "created_at")
	rows, err := pf.productRepo.ByFilter(ctx, filter, orderBy, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	items := make([]dto.ProductResponse, 0, len(rows))
	for _, p := range rows {
		items = append(items, ToProductResponse(p))
	}
	resp := dto.NewPagination(items, total, max(page.Page, 1), page.Size)
	return &resp, nil
}

// productSearchFields weighs name highest, then barcode, brand, category and description
func productSearchFields(p *models.Product) []SearchField {
	fields := []SearchField{
		{Value: p.Name, Weight: 10},
		{Value: p.Barcode, Weight: 8},
	}
	if p.Brand != nil {
		fields = append(fields, SearchField{Value: p.Brand.Name, Weight: 5})
	}
	if p.Category != nil {
		fields = append(fields, SearchField{Value: p.Category.Name, Weight: 3})
	}
	return append(fields, SearchField{Value: p.Description, Weight: 1})
}

// searchProducts ranks the store's products against query
func searchProducts(ctx context.Context, repo repository.ProductRepository, filter models.ProductFilter, query string) ([]*models.Product, error) {
	rows, err := repo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, err
	}
	return rankByScore(rows,
		func(p *models.Product) string { return p.ID.String() },
		func(p *models.Product) float64 { return WeightedScore(query, productSearchFields(p)) },
		nil,
	), nil
}

func (pf *ProductFlowImpl) SearchProducts(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.ProductResponse], error) {
	if strings.TrimSpace(query) == "" {
		return pf.ListProducts(ctx, storeID, page)
	}

	ranked, err := searchProducts(ctx, pf.productRepo, models.ProductFilter{StoreID: &storeID}, query)
	if err != nil {
		return nil, internal("SEARCH_PRODUCTS_FAILED", "Failed to search products", err)
	}

	pageRows := pageOf(ranked, page.Offset(), page.Limit())
	items := make([]dto.ProductResponse, 0, len(pageRows))
	for _, p := range pageRows {
		items = append(items, ToProductResponse(p))
	}
	resp := dto.NewPagination(items, int64(len(ranked)), max(page.Page, 1), page.Size)
	return &resp, nil
}

// productInStore loads a product and checks it belongs to the store
func (pf *ProductFlowImpl) productInStore(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, err := pf.productRepo.ByID(ctx, productID)
	if err != nil {
		return nil, internal("GET_PRODUCT_FAILED", "Failed to get product", err)
	}
	if product == nil {
		return nil, notFound("PRODUCT_NOT_FOUND", "Product not found", ErrProductNotFound)
	}
	if product.StoreID != storeID {
		return nil, notFound("PRODUCT_NOT_IN_STORE", "Product not found in the specified store", ErrProductNotInStore)
	}
	return product, nil
}

func (pf *ProductFlowImpl) GetProduct(ctx context.Context, storeID, productID uuid.UUID) (*dto.ProductResponse, error) {
	product, err := pf.productInStore(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

func (pf *ProductFlowImpl) resolveBrand(ctx context.Context, storeID uuid.UUID, ref *dto.RefRequest) (*models.Brand, error) {
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, badRequest("INVALID_BRAND_ID", "Invalid brand ID", err)
	}
	brand, err := pf.brandRepo.ByID(ctx, id)
	if err != nil {
		return nil, internal("GET_BRAND_FAILED", "Failed to get brand", err)
	}
	if brand == nil || brand.StoreID != storeID {
		return nil, notFound("BRAND_NOT_FOUND", "Brand not found", ErrBrandNotFound)
	}
	return brand, nil
}

func (pf *ProductFlowImpl) resolveCategory(ctx context.Context, storeID uuid.UUID, ref *dto.RefRequest) (*models.Category, error) {
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, badRequest("INVALID_CATEGORY_ID", "Invalid category ID", err)
	}
	category, err := pf.categoryRepo.ByID(ctx, id)
	if err != nil {
		return nil, internal("GET_CATEGORY_FAILED", "Failed to get category", err)
	}
	if category == nil || category.StoreID != storeID {
		return nil, notFound("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}
	return category, nil
}

func (pf *ProductFlowImpl) CreateProduct(ctx context.Context, storeID uuid.UUID, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	product := &models.Product{
		StoreID:       storeID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Barcode:       strings.TrimSpace(req.Barcode),
		Note:          req.Note,
		PurchasePrice: req.PurchasePrice,
		DiscountPrice: req.DiscountPrice,
		StockQuantity: req.StockQuantity,
		Status:        req.Status,
		AvatarURL:     req.AvatarURL,
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if product.Status == nil {
		product.Status = utils.ToPtr(true)
	}

	if req.Brand != nil {
		brand, err := pf.resolveBrand(ctx, storeID, req.Brand)
		if err != nil {
			return nil, err
		}
		product.BrandID, product.Brand = &brand.ID, brand
	}
	if req.Category != nil {
		category, err := pf.resolveCategory(ctx, storeID, req.Category)
		if err != nil {
			return nil, err
		}
		product.CategoryID, product.Category = &category.ID, category
	}

	if err := pf.productRepo.Save(ctx, product); err != nil {
		return nil, internal("CREATE_PRODUCT_FAILED", "Failed to create product", err)
	}

	markPermanent(ctx, pf.storage, pf.logger, utils.DerefString(product.AvatarURL))
	pf.InvalidateStoreProducts(ctx, storeID)

	resp := ToProductResponse(product)
	return &resp, nil
}

func (pf *ProductFlowImpl) UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if req.StoreID != nil && *req.StoreID != "" && *req.StoreID != storeID.String() {
		return nil, badRequest("CANNOT_CHANGE_STORE", "Cannot change product store", ErrCannotChangeStore)
	}

	product, err := pf.productInStore(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	oldAvatar := utils.DerefString(product.AvatarURL)

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Barcode != nil {
		product.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Note != nil {
		product.Note = *req.Note
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = *req.DiscountPrice
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.Status != nil {
		product.Status = utils.ToPtr(*req.Status)
	}
	if req.AvatarURL != nil {
		product.AvatarURL = req.AvatarURL
	}

	if req.Brand.Set {
		if ref := req.Brand.Ptr(); ref != nil {
			brand, err := pf.resolveBrand(ctx, storeID, ref)
			if err != nil {
				return nil, err
			}
			product.BrandID, product.Brand = &brand.ID, brand
		} else {
			product.BrandID, product.Brand = nil, nil
		}
	}
	if req.Category.Set {
		if ref := req.Category.Ptr(); ref != nil {
			category, err := pf.resolveCategory(ctx, storeID, ref)
			if err != nil {
				return nil, err
			}
			product.CategoryID, product.Category = &category.ID, category
		} else {
			product.CategoryID, product.Category = nil, nil
		}
	}

	if err := pf.productRepo.Update(ctx, product); err != nil {
		return nil, internal("UPDATE_PRODUCT_FAILED", "Failed to update product", err)
	}

	if newAvatar := utils.DerefString(product.AvatarURL); newAvatar != oldAvatar {
		markPermanent(ctx, pf.storage, pf.logger, newAvatar)
	}
	pf.InvalidateStoreProducts(ctx, storeID)

	resp := ToProductResponse(product)
	return &resp, nil
}

func (pf *ProductFlowImpl) DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error {
	if _, err := pf.productInStore(ctx, storeID, productID); err != nil {
		return err
	}
	if err := pf.productRepo.Delete(ctx, productID); err != nil {
		return internal("DELETE_PRODUCT_FAILED", "Failed to delete product", err)
	}
	pf.InvalidateStoreProducts(ctx, storeID)
	return nil
}

// InvalidateStoreProducts drops the cached first page and, when configured,
// schedules a warm-up that re-fills it.
func (pf *ProductFlowImpl) InvalidateStoreProducts(ctx context.Context, storeID uuid.UUID) {
	if pf.cache == nil || !pf.cache.Enabled() {
		return
	}
	key := storeProductsKey(storeID)
	pf.cache.DeletePattern(ctx, key+"*")

	if pf.warmupDelay <= 0 {
		return
	}
	logger := logWith(ctx, pf.logger)
	time.AfterFunc(pf.warmupDelay, func() {
		pf.warmStoreProducts(storeID, logger)
	})
}

func (pf *ProductFlowImpl) warmStoreProducts(storeID uuid.UUID, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := storeProductsKey(storeID)
	release, ok := pf.cache.TryLock(ctx, "warmup:"+key, 10*time.Second)
	if !ok {
		return
	}
	defer release()

	resp, err := pf.loadPage(ctx, storeID, dto.PageQuery{Page: 1, Size: DefaultProductPageSize, SortBy: DefaultProductSortBy, SortOrder: "desc"})
	if err != nil {
		logger.Warn("Product cache warm-up failed", zap.String("store_id", storeID.String()), zap.Error(err))
		return
	}
	pf.cache.Set(ctx, key, resp, pf.cacheTTL)
	logger.Debug("Product cache warmed", zap.String("store_id", storeID.String()), zap.Int("items", len(resp.Items)))
}

// productNotFoundInCart is the error for an unknown product in a cart
func productNotFoundInCart(id string) *BusinessError {
	return badRequest("TRANSACTION_PRODUCT_NOT_FOUND", fmt.Sprintf("Product with ID %s not found", id), ErrTransactionProduct)
}
