package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

// User represents the canonical identity entity across every role.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Role         enums.UserRole  `gorm:"column:role;type:user_role;not null;default:'buyer'"`
	Addresses    []types.Address `gorm:"column:addresses;type:jsonb;serializer:json;not null;default:'[]'"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
