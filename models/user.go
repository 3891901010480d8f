// Package models contains domain entities and persistence models for the point-of-sale backend
package models

import (
	"time"

	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can sign in. Store access is granted through memberships.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	DisplayName  string    `gorm:"size:255;not null;default:''" json:"display_name"`
	Phone        string    `gorm:"size:32;not null;default:''" json:"phone"`
	ImageURL     string    `gorm:"type:text;not null;default:''" json:"image_url"`
	Active       *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"not null;index:idx_users_created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`

	// Relations
	Memberships []UserStore `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the id and timestamps.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := utils.UTCNow()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	if u.Active == nil {
		u.Active = utils.ToPtr(true)
	}
	return nil
}

// Name is what receipts and staff lists show for the user.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID     *uuid.UUID
	Email  *string
	Active *bool
}
