package businessflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/app/services"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	testingutil "github.com/cherriedy/ban-hang-so-api/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// withDB runs fn against a throwaway database, skipping when postgres is unreachable.
func withDB(t *testing.T, fn func(t *testing.T, e *flowEnv)) {
	t.Helper()
	tdb, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = tdb.TeardownTestDB() })
	fn(t, newFlowEnv(tdb))
}

type flowEnv struct {
	ctx      context.Context
	db       *testingutil.TestDB
	fixtures *testingutil.TestFixtures

	users        repository.UserRepository
	stores       repository.StoreRepository
	members      repository.UserStoreRepository
	products     repository.ProductRepository
	brands       repository.BrandRepository
	categories   repository.CategoryRepository
	customers    repository.CustomerRepository
	transactions repository.TransactionRepository
	tx           repository.TxRunner
}

func newFlowEnv(tdb *testingutil.TestDB) *flowEnv {
	return &flowEnv{
		ctx:          testingutil.CreateTestContext(),
		db:           tdb,
		fixtures:     testingutil.NewTestFixtures(tdb),
		users:        repository.NewUserRepository(tdb.DB),
		stores:       repository.NewStoreRepository(tdb.DB),
		members:      repository.NewUserStoreRepository(tdb.DB),
		products:     repository.NewProductRepository(tdb.DB),
		brands:       repository.NewBrandRepository(tdb.DB),
		categories:   repository.NewCategoryRepository(tdb.DB),
		customers:    repository.NewCustomerRepository(tdb.DB),
		transactions: repository.NewTransactionRepository(tdb.DB),
		tx:           repository.NewTxRunner(tdb.DB),
	}
}

// ownerWithStore creates a user owning a fresh store
func (e *flowEnv) ownerWithStore(t *testing.T) (*models.User, *models.Store) {
	t.Helper()
	owner, err := e.fixtures.CreateTestUser()
	require.NoError(t, err)
	store, err := e.fixtures.CreateTestStore(owner)
	require.NoError(t, err)
	return owner, store
}

// requireBusinessError asserts err is a BusinessError with the given HTTP status and message
func requireBusinessError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	be, ok := businessflow.AsBusinessError(err)
	require.True(t, ok, "expected a BusinessError, got %T: %v", err, err)
	require.Equal(t, status, be.Status, be.Message)
	if message != "" {
		require.Equal(t, message, be.Message)
	}
}

// fakeNotifier records sent credentials instead of emailing them
type fakeNotifier struct {
	sent []services.StaffCredentials
	err  error
}

func (n *fakeNotifier) SendStaffCredentials(_ context.Context, c services.StaffCredentials) error {
	n.sent = append(n.sent, c)
	return n.err
}

func (n *fakeNotifier) lastPassword() string {
	if len(n.sent) == 0 {
		return ""
	}
	return n.sent[len(n.sent)-1].Password
}

func checkPassword(t *testing.T, hash, password string) {
	t.Helper()
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)))
}

// fakeInvalidator counts cache invalidations
type fakeInvalidator struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakeInvalidator) InvalidateStoreProducts(_ context.Context, storeID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, storeID)
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeUserRepo serves users from memory. Unused methods panic through the nil embedded interface.
type fakeUserRepo struct {
	repository.UserRepository
	users map[uuid.UUID]*models.User
}

func (r *fakeUserRepo) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.users[id], nil
}

type fakeMemberRepo struct {
	repository.UserStoreRepository
	members []*models.UserStore
}

func (r *fakeMemberRepo) ByUserAndStore(_ context.Context, userID, storeID uuid.UUID) (*models.UserStore, error) {
	for _, m := range r.members {
		if m.UserID == userID && m.StoreID == storeID {
			return m, nil
		}
	}
	return nil, nil
}

// fakeProductRepo tallies stock decrements per product
type fakeProductRepo struct {
	repository.ProductRepository
	failFor uuid.UUID

	mu          sync.Mutex
	decremented map[uuid.UUID]int
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) error {
	if productID == r.failFor {
		return errors.New("row lock timeout")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decremented == nil {
		r.decremented = make(map[uuid.UUID]int)
	}
	r.decremented[productID] += quantity
	return nil
}

func (r *fakeProductRepo) total(productID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decremented[productID]
}

// fakeTxRunner runs fn inline and counts transactions
type fakeTxRunner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTxRunner) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeTxRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
