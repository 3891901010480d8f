package dto

import "time"

// CreateCategoryRequest creates a category
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Drinks"`
}

// UpdateCategoryRequest renames a category
type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// CategoryResponse is a category with the number of products using it
type CategoryResponse struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"storeId"`
	Name         string    `json:"name"`
	ProductCount int64     `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateBrandRequest creates a brand. imageUrl is the legacy single image field.
type CreateBrandRequest struct {
	Name      string   `json:"name" validate:"required,min=1,max=100" example:"Vinamilk"`
	ImageURLs []string `json:"imageUrls" validate:"omitempty,dive,max=2048"`
	ImageURL  *string  `json:"imageUrl" validate:"omitempty,max=2048"`
}

// UpdateBrandRequest is a partial brand update
type UpdateBrandRequest struct {
	Name      *string   `json:"name" validate:"omitempty,min=1,max=100"`
	ImageURLs *[]string `json:"imageUrls" validate:"omitempty,dive,max=2048"`
	ImageURL  *string   `json:"imageUrl" validate:"omitempty,max=2048"`
}

// BrandResponse is a brand with its thumbnail and product count
type BrandResponse struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"storeId"`
	Name         string    `json:"name"`
	ImageURLs    []string  `json:"imageUrls"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ProductCount int64     `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
