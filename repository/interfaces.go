// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uuid.UUID) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// StoreRepository defines operations for stores
type StoreRepository interface {
	Repository[models.Store, models.StoreFilter]
}

// UserStoreRepository defines operations for store memberships
type UserStoreRepository interface {
	Repository[models.UserStore, models.UserStoreFilter]
	ByUserAndStore(ctx context.Context, userID, storeID uuid.UUID) (*models.UserStore, error)
	// ListWithStores returns the user's memberships with the store preloaded
	ListWithStores(ctx context.Context, userID uuid.UUID) ([]*models.UserStore, error)
	// ListWithUsers returns store memberships with the user preloaded
	ListWithUsers(ctx context.Context, storeID uuid.UUID, role *string) ([]*models.UserStore, error)
	DeleteByUserAndStore(ctx context.Context, userID, storeID uuid.UUID) error
}

// CategoryRepository defines operations for categories
type CategoryRepository interface {
	Repository[models.Category, models.CategoryFilter]
	// ListWithProductCount fills ProductCount on each row
	ListWithProductCount(ctx context.Context, storeID uuid.UUID, orderBy string, limit, offset int) ([]*models.Category, error)
	ByStoreAndName(ctx context.Context, storeID uuid.UUID, name string) (*models.Category, error)
}

// BrandRepository defines operations for brands
type BrandRepository interface {
	Repository[models.Brand, models.BrandFilter]
	ListWithProductCount(ctx context.Context, storeID uuid.UUID, orderBy string, limit, offset int) ([]*models.Brand, error)
	ByStoreAndName(ctx context.Context, storeID uuid.UUID, name string) (*models.Brand, error)
}

// ProductRepository defines operations for products. Reads preload brand and category.
type ProductRepository interface {
	Repository[models.Product, models.ProductFilter]
	// DecrementStock lowers stock under a row lock and never goes below zero
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
}

// SalesSummary aggregates transactions over a period
type SalesSummary struct {
	Revenue      float64
	Transactions int64
	Customers    int64
}

// TransactionRepository defines operations for transactions
type TransactionRepository interface {
	Repository[models.Transaction, models.TransactionFilter]
	Summary(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*SalesSummary, error)
}
