package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepositoryImpl implements CategoryRepository interface
type CategoryRepositoryImpl struct {
	*BaseRepository[models.Category, models.CategoryFilter]
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &CategoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Category, models.CategoryFilter](db),
	}
}

const categoryProductCountColumn = "(SELECT COUNT(*) FROM products p WHERE p.category_id = categories.id) AS product_count"

func (r *CategoryRepositoryImpl) ListWithProductCount(ctx context.Context, storeID uuid.UUID, orderBy string, limit, offset int) ([]*models.Category, error) {
	if orderBy == "" {
		orderBy = "categories.created_at DESC"
	}
	query := r.getDB(ctx).
		Model(&models.Category{}).
		Select("categories.*, " + categoryProductCountColumn).
		Where("categories.store_id = ?", storeID)

	var rows []*models.Category
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ByStoreAndName finds a category by name within a store, case-insensitive
func (r *CategoryRepositoryImpl) ByStoreAndName(ctx context.Context, storeID uuid.UUID, name string) (*models.Category, error) {
	var row models.Category
	err := r.getDB(ctx).
		Where("store_id = ? AND LOWER(name) = ?", storeID, strings.ToLower(strings.TrimSpace(name))).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CategoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.CategoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Name != nil {
		query = query.Where("LOWER(name) = ?", strings.ToLower(*filter.Name))
	}
	return query
}

func (r *CategoryRepositoryImpl) ByFilter(ctx context.Context, filter models.CategoryFilter, orderBy string, limit, offset int) ([]*models.Category, error) {
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query := r.applyFilter(r.getDB(ctx).Model(&models.Category{}), filter)

	var rows []*models.Category
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CategoryRepositoryImpl) Count(ctx context.Context, filter models.CategoryFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Category{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CategoryRepositoryImpl) Exists(ctx context.Context, filter models.CategoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
