package dto

import "time"

// StoreResponse is a store, optionally annotated with the caller's role in it
type StoreResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" example:"Tap Hoa Co Ba"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Role        string    `json:"role,omitempty" example:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpdateStoreRequest changes store details. Absent fields are left untouched.
type UpdateStoreRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
}
