package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrandRepositoryImpl implements BrandRepository interface
type BrandRepositoryImpl struct {
	*BaseRepository[models.Brand, models.BrandFilter]
}

// NewBrandRepository creates a new brand repository
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &BrandRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Brand, models.BrandFilter](db),
	}
}

const brandProductCountColumn = "(SELECT COUNT(*) FROM products p WHERE p.brand_id = brands.id) AS product_count"

func (r *BrandRepositoryImpl) ListWithProductCount(ctx context.Context, storeID uuid.UUID, orderBy string, limit, offset int) ([]*models.Brand, error) {
	if orderBy == "" {
		orderBy = "brands.created_at DESC"
	}
	query := r.getDB(ctx).
		Model(&models.Brand{}).
		Select("brands.*, " + brandProductCountColumn).
		Where("brands.store_id = ?", storeID)

	var rows []*models.Brand
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ByStoreAndName finds a brand by name within a store, case-insensitive
func (r *BrandRepositoryImpl) ByStoreAndName(ctx context.Context, storeID uuid.UUID, name string) (*models.Brand, error) {
	var row models.Brand
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

func (r *BrandRepositoryImpl) applyFilter(query *gorm.DB, filter models.BrandFilter) *gorm.DB {
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

func (r *BrandRepositoryImpl) ByFilter(ctx context.Context, filter models.BrandFilter, orderBy string, limit, offset int) ([]*models.Brand, error) {
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query := r.applyFilter(r.getDB(ctx).Model(&models.Brand{}), filter)

	var rows []*models.Brand
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BrandRepositoryImpl) Count(ctx context.Context, filter models.BrandFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Brand{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BrandRepositoryImpl) Exists(ctx context.Context, filter models.BrandFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
