package dto

import "time"

// RefRequest points at a brand or category by id
type RefRequest struct {
	ID   string `json:"id" validate:"required,uuid"`
	Name string `json:"name"`
}

// RefResponse is an embedded {id, name} reference
type RefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateProductRequest creates a product in a store
type CreateProductRequest struct {
	Name          string      `json:"name" validate:"required,min=1,max=200" example:"Coca Cola 330ml"`
	Description   string      `json:"description" validate:"max=2000"`
	Barcode       string      `json:"barcode" validate:"max=100" example:"8934588012112"`
	Note          string      `json:"note" validate:"max=1000"`
	PurchasePrice float64     `json:"purchasePrice" validate:"gte=0" example:"7000"`
	SellingPrice  *float64    `json:"sellingPrice" validate:"required,gte=0" example:"10000"`
	DiscountPrice float64     `json:"discountPrice" validate:"gte=0"`
	StockQuantity int         `json:"stockQuantity" validate:"gte=0" example:"24"`
	Status        *bool       `json:"status"`
	AvatarURL     *string     `json:"avatarUrl" validate:"omitempty,max=2048"`
	Brand         *RefRequest `json:"brand" validate:"omitempty"`
	Category      *RefRequest `json:"category" validate:"omitempty"`
}

// UpdateProductRequest is a partial update. brand/category set to null clear the reference.
type UpdateProductRequest struct {
	Name          *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string              `json:"description" validate:"omitempty,max=2000"`
	Barcode       *string              `json:"barcode" validate:"omitempty,max=100"`
	Note          *string              `json:"note" validate:"omitempty,max=1000"`
	PurchasePrice *float64             `json:"purchasePrice" validate:"omitempty,gte=0"`
	SellingPrice  *float64             `json:"sellingPrice" validate:"omitempty,gte=0"`
	DiscountPrice *float64             `json:"discountPrice" validate:"omitempty,gte=0"`
	StockQuantity *int                 `json:"stockQuantity" validate:"omitempty,gte=0"`
	Status        *bool                `json:"status"`
	AvatarURL     *string              `json:"avatarUrl" validate:"omitempty,max=2048"`
	Brand         Nullable[RefRequest] `json:"brand" validate:"-"`
	Category      Nullable[RefRequest] `json:"category" validate:"-"`
	StoreID       *string              `json:"storeId"`
}

// ProductResponse is the public view of a product
type ProductResponse struct {
	ID            string       `json:"id"`
	StoreID       string       `json:"storeId"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Barcode       string       `json:"barcode"`
	Note          string       `json:"note"`
	PurchasePrice float64      `json:"purchasePrice"`
	SellingPrice  float64      `json:"sellingPrice"`
	DiscountPrice float64      `json:"discountPrice"`
	StockQuantity int          `json:"stockQuantity"`
	Status        bool         `json:"status"`
	AvatarURL     *string      `json:"avatarUrl"`
	Brand         *RefResponse `json:"brand"`
	Category      *RefResponse `json:"category"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// SaleProductResponse is the lightweight product used by the sales screen
type SaleProductResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ThumbnailURL  *string `json:"thumbnailUrl"`
	SellingPrice  float64 `json:"sellingPrice"`
	PurchasePrice float64 `json:"purchasePrice"`
	DiscountPrice float64 `json:"discountPrice"`
	Status        bool    `json:"status"`
}
