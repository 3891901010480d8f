package repository

import (
	"context"
	"errors"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStoreRepositoryImpl implements UserStoreRepository interface
type UserStoreRepositoryImpl struct {
	*BaseRepository[models.UserStore, models.UserStoreFilter]
}

// NewUserStoreRepository creates a new membership repository
func NewUserStoreRepository(db *gorm.DB) UserStoreRepository {
	return &UserStoreRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserStore, models.UserStoreFilter](db),
	}
}

// ByUserAndStore returns the membership of a user in a store, or nil
func (r *UserStoreRepositoryImpl) ByUserAndStore(ctx context.Context, userID, storeID uuid.UUID) (*models.UserStore, error) {
	var row models.UserStore
	err := r.getDB(ctx).Where("user_id = ? AND store_id = ?", userID, storeID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserStoreRepositoryImpl) ListWithStores(ctx context.Context, userID uuid.UUID) ([]*models.UserStore, error) {
	var rows []*models.UserStore
	err := r.getDB(ctx).
		Preload("Store").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserStoreRepositoryImpl) ListWithUsers(ctx context.Context, storeID uuid.UUID, role *string) ([]*models.UserStore, error) {
	query := r.getDB(ctx).Preload("User").Where("store_id = ?", storeID)
	if role != nil {
		query = query.Where("role = ?", *role)
	}

	var rows []*models.UserStore
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserStoreRepositoryImpl) DeleteByUserAndStore(ctx context.Context, userID, storeID uuid.UUID) error {
	return r.write(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND store_id = ?", userID, storeID).Delete(&models.UserStore{}).Error
	})
}

func (r *UserStoreRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserStoreFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	return query
}

func (r *UserStoreRepositoryImpl) ByFilter(ctx context.Context, filter models.UserStoreFilter, orderBy string, limit, offset int) ([]*models.UserStore, error) {
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query := r.applyFilter(r.getDB(ctx).Model(&models.UserStore{}), filter)

	var rows []*models.UserStore
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserStoreRepositoryImpl) Count(ctx context.Context, filter models.UserStoreFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.UserStore{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserStoreRepositoryImpl) Exists(ctx context.Context, filter models.UserStoreFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
