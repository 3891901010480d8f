package models

import (
	"time"

	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a buyer registered by a store.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index:idx_customers_store_id" json:"store_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Phone     string    `gorm:"size:32;not null;default:''" json:"phone"`
	Email     string    `gorm:"size:255;not null;default:''" json:"email"`
	Address   string    `gorm:"type:text;not null;default:''" json:"address"`
	DOB       *string   `gorm:"size:10" json:"dob,omitempty"` // YYYY-MM-DD
	ImageURL  string    `gorm:"type:text;not null;default:''" json:"image_url"`
	CreatedAt time.Time `gorm:"not null;index:idx_customers_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := utils.UTCNow()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return nil
}

type CustomerFilter struct {
	ID      *uuid.UUID
	StoreID *uuid.UUID
}
