package testing

import (
	"fmt"
	"math/rand"

	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain password of every fixture user
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user with TestPassword
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := rand.Intn(900000000) + 100000000
	user := &models.User{
		Email:        fmt.Sprintf("user.%d@example.com", suffix),
		PasswordHash: string(hashed),
		DisplayName:  "Test User",
		Phone:        fmt.Sprintf("09%08d", suffix%100000000),
		Active:       utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateTestStore creates a store owned by the given user
func (tf *TestFixtures) CreateTestStore(owner *models.User) (*models.Store, error) {
	store := &models.Store{Name: "Test Store", Description: "fixture"}
	if err := tf.DB.DB.Create(store).Error; err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if owner != nil {
		if err := tf.AddMember(owner.ID, store.ID, utils.RoleOwner); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// AddMember attaches a user to a store
func (tf *TestFixtures) AddMember(userID, storeID uuid.UUID, role string) error {
	m := &models.UserStore{UserID: userID, StoreID: storeID, Role: role}
	if err := tf.DB.DB.Create(m).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// CreateTestProduct creates a product in a store
func (tf *TestFixtures) CreateTestProduct(storeID uuid.UUID, name string, price float64, stock int) (*models.Product, error) {
	p := &models.Product{
		StoreID:       storeID,
		Name:          name,
		SellingPrice:  price,
		PurchasePrice: price / 2,
		StockQuantity: stock,
	}
	if err := tf.DB.DB.Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}
