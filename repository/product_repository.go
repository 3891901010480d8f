package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepositoryImpl implements ProductRepository interface
type ProductRepositoryImpl struct {
	*BaseRepository[models.Product, models.ProductFilter]
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &ProductRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Product, models.ProductFilter](db),
	}
}

// ByID retrieves a product with its brand and category
func (r *ProductRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.getDB(ctx).Preload("Brand").Preload("Category").Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ProductRepositoryImpl) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	return r.write(ctx, func(db *gorm.DB) error {
		var row models.Product
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "stock_quantity").
			Where("id = ?", productID).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to lock product %s: %w", productID, err)
		}

		newStock := max(row.StockQuantity-quantity, 0)
		return db.Model(&models.Product{}).
			Where("id = ?", productID).
			Updates(map[string]any{"stock_quantity": newStock, "updated_at": utils.UTCNow()}).Error
	})
}

func (r *ProductRepositoryImpl) applyFilter(query *gorm.DB, filter models.ProductFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

func (r *ProductRepositoryImpl) ByFilter(ctx context.Context, filter models.ProductFilter, orderBy string, limit, offset int) ([]*models.Product, error) {
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query := r.applyFilter(r.getDB(ctx).Model(&models.Product{}).Preload("Brand").Preload("Category"), filter)

	var rows []*models.Product
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProductRepositoryImpl) Count(ctx context.Context, filter models.ProductFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Product{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProductRepositoryImpl) Exists(ctx context.Context, filter models.ProductFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
