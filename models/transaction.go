package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod represents how a checkout was paid
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodMobileBanking PaymentMethod = "MOBILE_BANKING"
	PaymentMethodDigitalWallet PaymentMethod = "DIGITAL_WALLET"
)

// Valid checks if the payment method is one of the supported values
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodMobileBanking, PaymentMethodDigitalWallet:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PaymentMethod
func (p *PaymentMethod) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = PaymentMethod(v)
	case []byte:
		*p = PaymentMethod(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PaymentMethod", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PaymentMethod
func (p PaymentMethod) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid PaymentMethod: %s", p)
	}
	return string(p), nil
}

// RefSnapshot is the {id, name} pair kept for a brand or category at sale time.
type RefSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransactionItem is a product line frozen at checkout.
type TransactionItem struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ThumbnailURL  *string      `json:"thumbnailUrl"`
	SellingPrice  float64      `json:"sellingPrice"`
	PurchasePrice float64      `json:"purchasePrice"`
	DiscountPrice float64      `json:"discountPrice"`
	Quantity      int          `json:"quantity"`
	Barcode       string       `json:"barcode"`
	Brand         *RefSnapshot `json:"brand"`
	Category      *RefSnapshot `json:"category"`
}

// TransactionItems is stored as a jsonb array
type TransactionItems []TransactionItem

func (t TransactionItems) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *TransactionItems) Scan(value any) error {
	return scanJSON(value, t, "TransactionItems")
}

// CustomerSnapshot freezes the buyer as they were at checkout. ID is nil for walk-in sales.
type CustomerSnapshot struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
	Email string  `json:"email"`
}

func (c CustomerSnapshot) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *CustomerSnapshot) Scan(value any) error {
	return scanJSON(value, c, "CustomerSnapshot")
}

// WalkInCustomer is the snapshot used when no customer is attached.
func WalkInCustomer() CustomerSnapshot {
	return CustomerSnapshot{Name: utils.WalkInCustomerName}
}

// StaffSnapshot freezes the cashier as they were at checkout.
type StaffSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s StaffSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StaffSnapshot) Scan(value any) error {
	return scanJSON(value, s, "StaffSnapshot")
}

func scanJSON(value any, dst any, typeName string) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %s", value, typeName)
	}

	return json.Unmarshal(bytes, dst)
}

// Transaction is a completed checkout. Items, customer and staff are snapshots.
type Transaction struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID             uuid.UUID        `gorm:"type:uuid;not null;index:idx_transactions_store_created,priority:1" json:"store_id"`
	CustomerID          *uuid.UUID       `gorm:"type:uuid;index:idx_transactions_customer_id" json:"customer_id,omitempty"`
	StaffID             *uuid.UUID       `gorm:"type:uuid;index:idx_transactions_staff_id" json:"staff_id,omitempty"`
	TotalItems          int              `gorm:"not null" json:"total_items"`
	TotalSellingPrices  float64          `gorm:"type:numeric(14,2);not null" json:"total_selling_prices"`
	TotalPurchasePrices float64          `gorm:"type:numeric(14,2);not null" json:"total_purchase_prices"`
	TotalDiscountPrices float64          `gorm:"type:numeric(14,2);not null" json:"total_discount_prices"`
	FinalPrices         float64          `gorm:"type:numeric(14,2);not null" json:"final_prices"`
	PaymentMethod       PaymentMethod    `gorm:"size:32;not null;index:idx_transactions_payment_method" json:"payment_method"`
	Note                string           `gorm:"type:text;not null;default:''" json:"note"`
	Items               TransactionItems `gorm:"type:jsonb;not null" json:"items"`
	Customer            CustomerSnapshot `gorm:"type:jsonb;not null" json:"customer"`
	Staff               *StaffSnapshot   `gorm:"type:jsonb" json:"staff,omitempty"`
	CustomerName        string           `gorm:"size:255;not null;default:''" json:"customer_name"`
	StaffName           string           `gorm:"size:255;not null;default:''" json:"staff_name"`
	CreatedAt           time.Time        `gorm:"not null;index:idx_transactions_store_created,priority:2" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"not null" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := utils.UTCNow()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	t.CustomerName = t.Customer.Name
	if t.Staff != nil {
		t.StaffName = t.Staff.Name
	}
	return nil
}

// TransactionFilter represents filter criteria for transaction queries
type TransactionFilter struct {
	ID            *uuid.UUID
	StoreID       *uuid.UUID
	CustomerID    *uuid.UUID
	StaffID       *uuid.UUID
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	MinAmount     *float64
	MaxAmount     *float64
	PaymentMethod *PaymentMethod
	Query         *string // id prefix, customer name or staff name
}
