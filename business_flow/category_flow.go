package businessflow

import (
	"context"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var catalogSortColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// CatalogSortFields lists the accepted sort_by values for categories and brands
func CatalogSortFields() []string {
	return []string{"name", "createdAt", "updatedAt"}
}

// CategoryFlow handles product categories of a store
type CategoryFlow interface {
	ListCategories(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.CategoryResponse], error)
	SearchCategories(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.CategoryResponse], error)
	GetCategory(ctx context.Context, storeID, categoryID uuid.UUID) (*dto.CategoryResponse, error)
	CreateCategory(ctx context.Context, storeID uuid.UUID, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, storeID, categoryID uuid.UUID, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error
}

// CategoryFlowImpl implements the category business flow
type CategoryFlowImpl struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	products     ProductCacheInvalidator
	logger       *zap.Logger
}

// NewCategoryFlow creates a new category flow instance
func NewCategoryFlow(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	products ProductCacheInvalidator,
	logger *zap.Logger,
) CategoryFlow {
	return &CategoryFlowImpl{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		products:     products,
		logger:       logger,
	}
}

func (cf *CategoryFlowImpl) ListCategories(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.CategoryResponse], error) {
	total, err := cf.categoryRepo.Count(ctx, models.CategoryFilter{StoreID: &storeID})
	if err != nil {
		return nil, internal("LIST_CATEGORIES_FAILED", "Failed to get categories", err)
	}

	orderBy := "categories." + orderClause(catalogSortColumns, page.SortBy, page.SortOrder, "created_at")
	rows, err := cf.categoryRepo.ListWithProductCount(ctx, storeID, orderBy, page.Limit(), page.Offset())
	if err != nil {
		return nil, internal("LIST_CATEGORIES_FAILED", "Failed to get categories", err)
	}

	items := make([]dto.CategoryResponse, 0, len(rows))
	for _, c := range rows {
		items = append(items, ToCategoryResponse(c))
	}
	resp := dto.NewPagination(items, total, max(page.Page, 1), page.Size)
	return &resp, nil
}

// SearchCategories ranks categories by name; equal scores are ordered by name
func (cf *CategoryFlowImpl) SearchCategories(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.CategoryResponse], error) {
	if strings.TrimSpace(query) == "" {
		return cf.ListCategories(ctx, storeID, page)
	}

	rows, err := cf.categoryRepo.ListWithProductCount(ctx, storeID, "", 0, 0)
	if err != nil {
		return nil, internal("SEARCH_CATEGORIES_FAILED", "Failed to search categories", err)
	}

	ranked := rankByScore(rows,
		func(c *models.Category) string { return c.ID.String() },
		func(c *models.Category) float64 {
			return TieredScore(query, []TieredField{{Value: c.Name, Exact: 15, Prefix: 12, Substring: 10}})
		},
		func(a, b *models.Category) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) },
	)

	pageRows := pageOf(ranked, page.Offset(), page.Limit())
	items := make([]dto.CategoryResponse, 0, len(pageRows))
	for _, c := range pageRows {
		items = append(items, ToCategoryResponse(c))
	}
	resp := dto.NewPagination(items, int64(len(ranked)), max(page.Page, 1), page.Size)
	return &resp, nil
}

func (cf *CategoryFlowImpl) categoryInStore(ctx context.Context, storeID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := cf.categoryRepo.ByID(ctx, categoryID)
	if err != nil {
		return nil, internal("GET_CATEGORY_FAILED", "Failed to get category", err)
	}
	if category == nil {
		return nil, notFound("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}
	if category.StoreID != storeID {
		return nil, notFound("CATEGORY_NOT_IN_STORE", "Category not found in the specified store", ErrCategoryNotFound)
	}

	count, err := cf.productRepo.Count(ctx, models.ProductFilter{StoreID: &storeID, CategoryID: &category.ID})
	if err != nil {
		return nil, internal("GET_CATEGORY_FAILED", "Failed to get category", err)
	}
	category.ProductCount = count
	return category, nil
}

func (cf *CategoryFlowImpl) GetCategory(ctx context.Context, storeID, categoryID uuid.UUID) (*dto.CategoryResponse, error) {
	category, err := cf.categoryInStore(ctx, storeID, categoryID)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// ensureUniqueName rejects a name already used by another category of the store
func (cf *CategoryFlowImpl) ensureUniqueName(ctx context.Context, storeID uuid.UUID, name string, self *uuid.UUID) error {
	existing, err := cf.categoryRepo.ByStoreAndName(ctx, storeID, name)
	if err != nil {
		return internal("CHECK_CATEGORY_FAILED", "Failed to check category name", err)
	}
	if existing != nil && (self == nil || existing.ID != *self) {
		return badRequest("CATEGORY_NAME_EXISTS", "Category name already exists in this store", ErrCategoryNameExists)
	}
	return nil
}

func (cf *CategoryFlowImpl) CreateCategory(ctx context.Context, storeID uuid.UUID, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := cf.ensureUniqueName(ctx, storeID, name, nil); err != nil {
		return nil, err
	}

	category := &models.Category{StoreID: storeID, Name: name}
	if err := cf.categoryRepo.Save(ctx, category); err != nil {
		return nil, internal("CREATE_CATEGORY_FAILED", "Failed to create category", err)
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

func (cf *CategoryFlowImpl) UpdateCategory(ctx context.Context, storeID, categoryID uuid.UUID, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := cf.categoryInStore(ctx, storeID, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !strings.EqualFold(name, category.Name) {
			if err := cf.ensureUniqueName(ctx, storeID, name, &category.ID); err != nil {
				return nil, err
			}
		}
		category.Name = name
	}

	if err := cf.categoryRepo.Update(ctx, category); err != nil {
		return nil, internal("UPDATE_CATEGORY_FAILED", "Failed to update category", err)
	}
	// product responses embed the category name
	if cf.products != nil && category.ProductCount > 0 {
		cf.products.InvalidateStoreProducts(ctx, storeID)
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

func (cf *CategoryFlowImpl) DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error {
	category, err := cf.categoryInStore(ctx, storeID, categoryID)
	if err != nil {
		return err
	}
	if category.ProductCount > 0 {
		return badRequest("CATEGORY_IN_USE", "Cannot delete category that is being used by products", ErrCategoryInUse)
	}
	if err := cf.categoryRepo.Delete(ctx, categoryID); err != nil {
		return internal("DELETE_CATEGORY_FAILED", "Failed to delete category", err)
	}
	return nil
}
