package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepositoryImpl implements TransactionRepository interface
type TransactionRepositoryImpl struct {
	*BaseRepository[models.Transaction, models.TransactionFilter]
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &TransactionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Transaction, models.TransactionFilter](db),
	}
}

// Summary aggregates revenue, transaction count and distinct customers in [from, to]
func (r *TransactionRepositoryImpl) Summary(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*SalesSummary, error) {
	var row struct {
		Revenue      float64
		Transactions int64
		Customers    int64
	}
	err := r.getDB(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(total_selling_prices), 0) AS revenue, COUNT(*) AS transactions, COUNT(DISTINCT customer_id) AS customers").
		Where("store_id = ? AND created_at >= ? AND created_at <= ?", storeID, from, to).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	return &SalesSummary{Revenue: row.Revenue, Transactions: row.Transactions, Customers: row.Customers}, nil
}

func (r *TransactionRepositoryImpl) applyFilter(query *gorm.DB, filter models.TransactionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.StaffID != nil {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.MinAmount != nil {
		query = query.Where("final_prices >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("final_prices <= ?", *filter.MaxAmount)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", string(*filter.PaymentMethod))
	}
	if filter.Query != nil {
		if q := strings.ToLower(strings.TrimSpace(*filter.Query)); q != "" {
			like := "%" + escapeLike(q) + "%"
			query = query.Where(
				"(CAST(id AS TEXT) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(staff_name) LIKE ?)",
				escapeLike(q)+"%", like, like,
			)
		}
	}
	return query
}

func (r *TransactionRepositoryImpl) ByFilter(ctx context.Context, filter models.TransactionFilter, orderBy string, limit, offset int) ([]*models.Transaction, error) {
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query := r.applyFilter(r.getDB(ctx).Model(&models.Transaction{}), filter)

	var rows []*models.Transaction
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TransactionRepositoryImpl) Count(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Transaction{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TransactionRepositoryImpl) Exists(ctx context.Context, filter models.TransactionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
