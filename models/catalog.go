package models

import (
	"time"

	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Category groups products within one store. Names are unique per store, case-insensitive.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index:idx_categories_store_id" json:"store_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// ProductCount is computed by list queries, never stored
	ProductCount int64 `gorm:"->;-:migration" json:"product_count"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
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

type CategoryFilter struct {
	ID      *uuid.UUID
	StoreID *uuid.UUID
	Name    *string // case-insensitive exact match
}

type Brand struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_brands_store_id" json:"store_id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	ImageURLs    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"image_urls"`
	ThumbnailURL string         `gorm:"type:text;not null;default:''" json:"thumbnail_url"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`

	ProductCount int64 `gorm:"->;-:migration" json:"product_count"`
}

func (Brand) TableName() string {
	return "brands"
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.ImageURLs == nil {
		b.ImageURLs = pq.StringArray{}
	}
	now := utils.UTCNow()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	return nil
}

type BrandFilter struct {
	ID      *uuid.UUID
	StoreID *uuid.UUID
	Name    *string
}

type Product struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_products_store_id" json:"store_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   string     `gorm:"type:text;not null;default:''" json:"description"`
	Barcode       string     `gorm:"size:128;not null;default:'';index:idx_products_barcode" json:"barcode"`
	Note          string     `gorm:"type:text;not null;default:''" json:"note"`
	PurchasePrice float64    `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	SellingPrice  float64    `gorm:"type:numeric(14,2);not null" json:"selling_price"`
	DiscountPrice float64    `gorm:"type:numeric(14,2);not null;default:0" json:"discount_price"`
	StockQuantity int        `gorm:"not null;default:0" json:"stock_quantity"`
	Status        *bool      `gorm:"not null;default:true;index:idx_products_status" json:"status"`
	AvatarURL     *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	BrandID       *uuid.UUID `gorm:"type:uuid;index:idx_products_brand_id" json:"brand_id,omitempty"`
	CategoryID    *uuid.UUID `gorm:"type:uuid;index:idx_products_category_id" json:"category_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_products_created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`

	// Relations
	Brand    *Brand    `gorm:"foreignKey:BrandID;references:ID" json:"brand,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == nil {
		p.Status = utils.ToPtr(true)
	}
	now := utils.UTCNow()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return nil
}

// IsActive reports whether the product can be sold.
func (p Product) IsActive() bool {
	return p.Status == nil || *p.Status
}

type ProductFilter struct {
	ID         *uuid.UUID
	IDs        []uuid.UUID
	StoreID    *uuid.UUID
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
	Status     *bool
}
