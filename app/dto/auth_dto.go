package dto

import "time"

// SignupRequest registers a user either as the owner of a new store or as staff of an existing one
type SignupRequest struct {
	Email       string            `json:"email" validate:"required,email,max=255" example:"owner@example.com"`
	Password    string            `json:"password" validate:"required,min=6,max=100" example:"secret123"`
	DisplayName string            `json:"displayName" validate:"max=100" example:"Nguyen Van A"`
	Phone       string            `json:"phone" validate:"max=20" example:"0901234567"`
	ImageURL    string            `json:"imageUrl" validate:"max=2048"`
	Role        string            `json:"role" validate:"omitempty,oneof=owner staff" example:"owner"`
	StoreInfo   *StoreInfoRequest `json:"storeInfo" validate:"omitempty"`
	StoreID     string            `json:"storeId" validate:"omitempty,uuid"`
}

// StoreInfoRequest describes the store created along with an owner account
type StoreInfoRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100" example:"Tap Hoa Co Ba"`
	Description string `json:"description" validate:"max=500"`
	ImageURL    string `json:"imageUrl" validate:"max=2048"`
}

// StoreMembership is a (store, role) pair in a user profile
type StoreMembership struct {
	ID   string `json:"id" example:"6f1c1e8a-3b8e-4c0e-9d57-3f0b3d2f7d10"`
	Role string `json:"role" example:"owner"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID          string            `json:"id"`
	Email       string            `json:"email" example:"owner@example.com"`
	ContactName string            `json:"contactName" example:"Nguyen Van A"`
	Phone       string            `json:"phone"`
	ImageURL    string            `json:"imageUrl"`
	Stores      []StoreMembership `json:"stores"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// LoginRequest authenticates with email and password. The captcha fields are
// required only when login captcha is enabled.
type LoginRequest struct {
	Email        string   `json:"email" validate:"required,email" example:"owner@example.com"`
	Password     string   `json:"password" validate:"required" example:"secret123"`
	CaptchaID    string   `json:"captchaId"`
	CaptchaAngle *float64 `json:"captchaAngle" example:"266.6"` // degrees applied to the thumbnail; passes when it plus the challenge angle is 360 within padding
}

// TokenResponse carries an issued token pair
type TokenResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	TokenType    string        `json:"tokenType" example:"Bearer"`
	ExpiresIn    int           `json:"expiresIn" example:"3600"`
	User         *UserResponse `json:"user,omitempty"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest optionally names the refresh token to revoke along with the
// access token
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// CaptchaResponse is a rotate captcha challenge
type CaptchaResponse struct {
	ID          string `json:"id"`
	MasterImage string `json:"masterImage"`
	ThumbImage  string `json:"thumbImage"`
}
