package models

import (
	"time"

	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	ImageURL    string    `gorm:"type:text;not null;default:''" json:"image_url"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

type StoreFilter struct {
	ID *uuid.UUID
}

// UserStore is a membership of a user in a store with a role.
type UserStore struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_user_stores_user_store,priority:1" json:"user_id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_user_stores_user_store,priority:2;index:idx_user_stores_store_id" json:"store_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// Relations
	User  *User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Store *Store `gorm:"foreignKey:StoreID;references:ID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
}

func (UserStore) TableName() string {
	return "user_stores"
}

func (m *UserStore) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsOwner reports whether the membership grants owner privileges.
func (m UserStore) IsOwner() bool {
	return m.Role == utils.RoleOwner
}

type UserStoreFilter struct {
	UserID  *uuid.UUID
	StoreID *uuid.UUID
	Role    *string
}
