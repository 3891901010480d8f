package businessflow

import (
	"context"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// BrandFlow handles product brands of a store
type BrandFlow interface {
	ListBrands(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.BrandResponse], error)
	SearchBrands(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.BrandResponse], error)
	GetBrand(ctx context.Context, storeID, brandID uuid.UUID) (*dto.BrandResponse, error)
	CreateBrand(ctx context.Context, storeID uuid.UUID, req *dto.CreateBrandRequest) (*dto.BrandResponse, error)
	UpdateBrand(ctx context.Context, storeID, brandID uuid.UUID, req *dto.UpdateBrandRequest) (*dto.BrandResponse, error)
	DeleteBrand(ctx context.Context, storeID, brandID uuid.UUID) error
}

// BrandFlowImpl implements the brand business flow
type BrandFlowImpl struct {
	brandRepo   repository.BrandRepository
	productRepo repository.ProductRepository
	storage     services.StorageService
	products    ProductCacheInvalidator
	logger      *zap.Logger
}

// NewBrandFlow creates a new brand flow instance
func NewBrandFlow(
	brandRepo repository.BrandRepository,
	productRepo repository.ProductRepository,
	storage services.StorageService,
	products ProductCacheInvalidator,
	logger *zap.Logger,
) BrandFlow {
	return &BrandFlowImpl{
		brandRepo:   brandRepo,
		productRepo: productRepo,
		storage:     storage,
		products:    products,
		logger:      logger,
	}
}

// thumbnailFor is the first image, otherwise the generated initials avatar
func thumbnailFor(imageURLs []string, name string) string {
	if len(imageURLs) > 0 {
		return imageURLs[0]
	}
	return utils.InitialsAvatarURL(name)
}

// shouldUpdateThumbnail reports whether an image list change affects the thumbnail
func shouldUpdateThumbnail(existing, updated []string) bool {
	if (len(existing) == 0) != (len(updated) == 0) {
		return true
	}
	if len(existing) > 0 {
		return existing[0] != updated[0]
	}
	return false
}

// brandImages merges the legacy single image field into the list
func brandImages(urls []string, legacy *string) []string {
	if len(urls) == 0 && legacy != nil && *legacy != "" {
		return []string{*legacy}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (bf *BrandFlowImpl) ListBrands(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.BrandResponse], error) {
	total, err := bf.brandRepo.Count(ctx, models.BrandFilter{StoreID: &storeID})
	if err != nil {
		return nil, internal("LIST_BRANDS_FAILED", "Failed to get brands", err)
	}

	orderBy := "brands." + orderClause(catalogSortColumns, page.SortBy, page.SortOrder, "created_at")
	rows, err := bf.brandRepo.ListWithProductCount(ctx, storeID, orderBy, page.Limit(), page.Offset())
	if err != nil {
		return nil, internal("LIST_BRANDS_FAILED", "Failed to get brands", err)
	}

	items := make([]dto.BrandResponse, 0, len(rows))
	for _, b := range rows {
		items = append(items, ToBrandResponse(b))
	}
	resp := dto.NewPagination(items, total, max(page.Page, 1), page.Size)
	return &resp, nil
}

func (bf *BrandFlowImpl) SearchBrands(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.BrandResponse], error) {
	if strings.TrimSpace(query) == "" {
		return bf.ListBrands(ctx, storeID, page)
	}

	rows, err := bf.brandRepo.ListWithProductCount(ctx, storeID, "", 0, 0)
	if err != nil {
		return nil, internal("SEARCH_BRANDS_FAILED", "Failed to search brands", err)
	}

	ranked := rankByScore(rows,
		func(b *models.Brand) string { return b.ID.String() },
		func(b *models.Brand) float64 {
			return TieredScore(query, []TieredField{{Value: b.Name, Exact: 15, Prefix: 12, Substring: 10}})
		},
		func(a, b *models.Brand) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) },
	)

	pageRows := pageOf(ranked, page.Offset(), page.Limit())
	items := make([]dto.BrandResponse, 0, len(pageRows))
	for _, b := range pageRows {
		items = append(items, ToBrandResponse(b))
	}
	resp := dto.NewPagination(items, int64(len(ranked)), max(page.Page, 1), page.Size)
	return &resp, nil
}

func (bf *BrandFlowImpl) brandInStore(ctx context.Context, storeID, brandID uuid.UUID) (*models.Brand, error) {
	brand, err := bf.brandRepo.ByID(ctx, brandID)
	if err != nil {
		return nil, internal("GET_BRAND_FAILED", "Failed to get brand", err)
	}
	if brand == nil {
		return nil, notFound("BRAND_NOT_FOUND", "Brand not found", ErrBrandNotFound)
	}
	if brand.StoreID != storeID {
		return nil, notFound("BRAND_NOT_IN_STORE", "Brand not found in the specified store", ErrBrandNotFound)
	}

	count, err := bf.productRepo.Count(ctx, models.ProductFilter{StoreID: &storeID, BrandID: &brand.ID})
	if err != nil {
		return nil, internal("GET_BRAND_FAILED", "Failed to get brand", err)
	}
	brand.ProductCount = count
	return brand, nil
}

func (bf *BrandFlowImpl) GetBrand(ctx context.Context, storeID, brandID uuid.UUID) (*dto.BrandResponse, error) {
	brand, err := bf.brandInStore(ctx, storeID, brandID)
	if err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

func (bf *BrandFlowImpl) ensureUniqueName(ctx context.Context, storeID uuid.UUID, name string, self *uuid.UUID) error {
	existing, err := bf.brandRepo.ByStoreAndName(ctx, storeID, name)
	if err != nil {
		return internal("CHECK_BRAND_FAILED", "Failed to check brand name", err)
	}
	if existing != nil && (self == nil || existing.ID != *self) {
		return badRequest("BRAND_NAME_EXISTS", "Brand name already exists in this store", ErrBrandNameExists)
	}
	return nil
}

func (bf *BrandFlowImpl) CreateBrand(ctx context.Context, storeID uuid.UUID, req *dto.CreateBrandRequest) (*dto.BrandResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := bf.ensureUniqueName(ctx, storeID, name, nil); err != nil {
		return nil, err
	}

	images := brandImages(req.ImageURLs, req.ImageURL)
	brand := &models.Brand{
		StoreID:      storeID,
		Name:         name,
		ImageURLs:    pq.StringArray(images),
		ThumbnailURL: thumbnailFor(images, name),
	}
	if err := bf.brandRepo.Save(ctx, brand); err != nil {
		return nil, internal("CREATE_BRAND_FAILED", "Failed to create brand", err)
	}
	markPermanent(ctx, bf.storage, bf.logger, images...)

	resp := ToBrandResponse(brand)
	return &resp, nil
}

func (bf *BrandFlowImpl) UpdateBrand(ctx context.Context, storeID, brandID uuid.UUID, req *dto.UpdateBrandRequest) (*dto.BrandResponse, error) {
	brand, err := bf.brandInStore(ctx, storeID, brandID)
	if err != nil {
		return nil, err
	}
	oldName := brand.Name
	existing := []string(brand.ImageURLs)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != oldName {
			if err := bf.ensureUniqueName(ctx, storeID, name, &brand.ID); err != nil {
				return nil, err
			}
		}
		brand.Name = name
	}

	var updated []string
	imagesProvided := req.ImageURLs != nil || req.ImageURL != nil
	if imagesProvided {
		var urls []string
		if req.ImageURLs != nil {
			urls = *req.ImageURLs
		}
		updated = brandImages(urls, req.ImageURL)
		brand.ImageURLs = pq.StringArray(updated)
	}

	switch {
	case imagesProvided && len(updated) == 0:
		brand.ThumbnailURL = utils.InitialsAvatarURL(brand.Name)
	case imagesProvided && shouldUpdateThumbnail(existing, updated):
		brand.ThumbnailURL = thumbnailFor(updated, brand.Name)
	case !imagesProvided && brand.Name != oldName && len(existing) == 0:
		brand.ThumbnailURL = utils.InitialsAvatarURL(brand.Name)
	}

	if err := bf.brandRepo.Update(ctx, brand); err != nil {
		return nil, internal("UPDATE_BRAND_FAILED", "Failed to update brand", err)
	}
	if imagesProvided {
		markPermanent(ctx, bf.storage, bf.logger, newImages(existing, updated)...)
	}
	if bf.products != nil && brand.ProductCount > 0 {
		bf.products.InvalidateStoreProducts(ctx, storeID)
	}

	resp := ToBrandResponse(brand)
	return &resp, nil
}

func newImages(existing, updated []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		seen[u] = struct{}{}
	}
	var out []string
	for _, u := range updated {
		if _, ok := seen[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func (bf *BrandFlowImpl) DeleteBrand(ctx context.Context, storeID, brandID uuid.UUID) error {
	brand, err := bf.brandInStore(ctx, storeID, brandID)
	if err != nil {
		return err
	}
	if brand.ProductCount > 0 {
		return badRequest("BRAND_IN_USE", "Cannot delete brand that is being used by products", ErrBrandInUse)
	}
	if err := bf.brandRepo.Delete(ctx, brandID); err != nil {
		return internal("DELETE_BRAND_FAILED", "Failed to delete brand", err)
	}
	return nil
}
