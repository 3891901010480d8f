package dto

import "time"

// CreateCustomerRequest creates a customer. dob accepts YYYY-MM-DD or an ISO datetime.
type CreateCustomerRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100" example:"Tran Thi B"`
	Phone    string  `json:"phone" validate:"max=20"`
	Email    string  `json:"email" validate:"omitempty,email,max=255"`
	Address  string  `json:"address" validate:"max=255"`
	DOB      *string `json:"dob" example:"1990-04-30"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// UpdateCustomerRequest is a partial customer update
type UpdateCustomerRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Email    *string `json:"email" validate:"omitempty,max=255"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	DOB      *string `json:"dob"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// CustomerResponse is the public view of a customer
type CustomerResponse struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	DOB       *string   `json:"dob"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateStaffRequest creates a staff account; the password is generated and emailed
type CreateStaffRequest struct {
	Email       string `json:"email" validate:"required,email,max=255" example:"staff@example.com"`
	DisplayName string `json:"displayName" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=20"`
	ImageURL    string `json:"imageUrl" validate:"max=2048"`
}

// CreateStaffResponse confirms the account was created
type CreateStaffResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// UpdateStaffRequest is a partial staff update
type UpdateStaffRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
	Active      *bool   `json:"active"`
}

// StaffResponse is a store member as seen by the owner
type StaffResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Phone       string    `json:"phone"`
	ImageURL    string    `json:"imageUrl"`
	Active      bool      `json:"active"`
	StoreID     string    `json:"storeId"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
