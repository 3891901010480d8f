package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	testingutil "github.com/cherriedy/ban-hang-so-api/testing"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withDB runs fn against a throwaway database, skipping when postgres is unreachable.
func withDB(t *testing.T, fn func(t *testing.T, tdb *testingutil.TestDB)) {
	t.Helper()
	tdb, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = tdb.TeardownTestDB() })
	fn(t, tdb)
}

func TestUserRepository_ByEmailIsCaseInsensitive(t *testing.T) {
	withDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(tdb)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		repo := repository.NewUserRepository(tdb.DB)
		found, err := repo.ByEmail(context.Background(), "  "+strings.ToUpper(user.Email))
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)

		missing, err := repo.ByEmail(context.Background(), "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestUserStoreRepository(t *testing.T) {
	withDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(tdb)
		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		staff, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		store, err := fixtures.CreateTestStore(owner)
		require.NoError(t, err)
		require.NoError(t, fixtures.AddMember(staff.ID, store.ID, utils.RoleStaff))

		repo := repository.NewUserStoreRepository(tdb.DB)

		m, err := repo.ByUserAndStore(ctx, owner.ID, store.ID)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.True(t, m.IsOwner())

		withStores, err := repo.ListWithStores(ctx, staff.ID)
		require.NoError(t, err)
		require.Len(t, withStores, 1)
		require.NotNil(t, withStores[0].Store)
		assert.Equal(t, store.Name, withStores[0].Store.Name)

		role := utils.RoleStaff
		staffOnly, err := repo.ListWithUsers(ctx, store.ID, &role)
		require.NoError(t, err)
		require.Len(t, staffOnly, 1)
		assert.Equal(t, staff.Email, staffOnly[0].User.Email)

		require.NoError(t, repo.DeleteByUserAndStore(ctx, staff.ID, store.ID))
		count, err := repo.Count(ctx, models.UserStoreFilter{UserID: &staff.ID})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestCategoryRepository_ProductCount(t *testing.T) {
	withDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(tdb)
		store, err := fixtures.CreateTestStore(nil)
		require.NoError(t, err)

		categories := repository.NewCategoryRepository(tdb.DB)
		drinks := &models.Category{StoreID: store.ID, Name: "Drinks"}
		require.NoError(t, categories.Save(ctx, drinks))

		products := repository.NewProductRepository(tdb.DB)
		for _, name := range []string{"Tea", "Coffee"} {
			p := &models.Product{StoreID: store.ID, Name: name, SellingPrice: 10, CategoryID: &drinks.ID}
			require.NoError(t, products.Save(ctx, p))
		}

		rows, err := categories.ListWithProductCount(ctx, store.ID, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(2), rows[0].ProductCount)

		dup, err := categories.ByStoreAndName(ctx, store.ID, "drinks")
		require.NoError(t, err)
		require.NotNil(t, dup)
		assert.Equal(t, drinks.ID, dup.ID)

		list, err := products.ByFilter(ctx, models.ProductFilter{StoreID: &store.ID}, "name ASC", 0, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.NotNil(t, list[0].Category)
		assert.Equal(t, "Drinks", list[0].Category.Name)
	})
}

func TestProductRepository_DecrementStockClampsAtZero(t *testing.T) {
	withDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(tdb)
		store, err := fixtures.CreateTestStore(nil)
		require.NoError(t, err)
		p, err := fixtures.CreateTestProduct(store.ID, "Bread", 15000, 3)
		require.NoError(t, err)

		repo := repository.NewProductRepository(tdb.DB)
		require.NoError(t, repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			return repo.DecrementStock(txCtx, p.ID, 2)
		}))
		got, err := repo.ByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.StockQuantity)

		require.NoError(t, repo.DecrementStock(ctx, p.ID, 5))
		got, err = repo.ByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.StockQuantity)

		// unknown products are ignored
		assert.NoError(t, repo.DecrementStock(ctx, uuid.New(), 1))
	})
}

func TestTransactionRepository_FiltersAndSummary(t *testing.T) {
	withDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(tdb)
		store, err := fixtures.CreateTestStore(nil)
		require.NoError(t, err)

		repo := repository.NewTransactionRepository(tdb.DB)
		customerID := uuid.New()
		idStr := customerID.String()
		base := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

		txs := []*models.Transaction{
			{StoreID: store.ID, CustomerID: &customerID, TotalItems: 1, TotalSellingPrices: 100, FinalPrices: 90, PaymentMethod: models.PaymentMethodCash,
				Customer: models.CustomerSnapshot{ID: &idStr, Name: "Lan"}, CreatedAt: base},
			{StoreID: store.ID, CustomerID: &customerID, TotalItems: 2, TotalSellingPrices: 200, FinalPrices: 200, PaymentMethod: models.PaymentMethodMobileBanking,
				Customer: models.CustomerSnapshot{ID: &idStr, Name: "Lan"}, CreatedAt: base.Add(time.Hour)},
			{StoreID: store.ID, TotalItems: 1, TotalSellingPrices: 50, FinalPrices: 50, PaymentMethod: models.PaymentMethodCash,
				Customer: models.WalkInCustomer(), Staff: &models.StaffSnapshot{Name: "Minh"}, CreatedAt: base.AddDate(0, 1, 0)},
		}
		require.NoError(t, repo.SaveBatch(ctx, txs))

		cash := models.PaymentMethodCash
		rows, err := repo.ByFilter(ctx, models.TransactionFilter{StoreID: &store.ID, PaymentMethod: &cash}, "", 0, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		minAmount := 100.0
		rows, err = repo.ByFilter(ctx, models.TransactionFilter{StoreID: &store.ID, MinAmount: &minAmount}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 200.0, rows[0].FinalPrices)

		q := "minh"
		rows, err = repo.ByFilter(ctx, models.TransactionFilter{StoreID: &store.ID, Query: &q}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Minh", rows[0].StaffName)

		summary, err := repo.Summary(ctx, store.ID, base.Add(-time.Hour), base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 300.0, summary.Revenue)
		assert.Equal(t, int64(2), summary.Transactions)
		assert.Equal(t, int64(1), summary.Customers)
	})
}
