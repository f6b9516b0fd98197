package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

// UserDTO is the transport shape that omits the credential hash.
type UserDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      enums.UserRole  `json:"role"`
	Addresses []types.Address `json:"addresses"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.UserRole
}

// UpdateProfileDTO carries the mutable profile fields. Nil means unchanged.
type UpdateProfileDTO struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Addresses    []types.Address
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	addresses := u.Addresses
	if addresses == nil {
		addresses = []types.Address{}
	} else {
		addresses = append([]types.Address(nil), addresses...)
	}

	return &UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Addresses: addresses,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleBuyer
	}

	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
		Addresses:    []types.Address{},
	}
}
