package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/config"
	"github.com/shopmandi/shopmandi-backend/pkg/db"
	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
	"github.com/shopmandi/shopmandi-backend/pkg/security"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

// UpdateProfileRequest carries the self-service profile mutation payload.
type UpdateProfileRequest struct {
	Name      *string         `json:"name,omitempty"`
	Email     *string         `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string         `json:"password,omitempty" validate:"omitempty,min=8"`
	Addresses []types.Address `json:"addresses,omitempty"`
}

// UpdateUserRequest is the admin-side mutation payload.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Role  *string `json:"role,omitempty"`
}

// UserListResult pages user rows for admin listings.
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// Service covers profile self-service and admin user management.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params) (*UserListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, string, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies for the users service.
type ServiceParams struct {
	Repo           userRepository
	PasswordConfig config.PasswordConfig
}

// NewService constructs a users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	return &service{repo: params.Repo, passwordCfg: params.PasswordConfig}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	return s.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	dto := UpdateProfileDTO{
		Name:      trimPtr(req.Name),
		Addresses: req.Addresses,
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email must not be empty")
		}
		if err := s.ensureEmailAvailable(ctx, email, userID); err != nil {
			return nil, err
		}
		dto.Email = &email
	}

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		dto.PasswordHash = &hash
	}

	for _, addr := range req.Addresses {
		if !addr.Validate() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address requires street, city and postal code")
		}
	}

	user, err := s.repo.UpdateProfile(ctx, userID, dto)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*UserListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &UserListResult{Users: dtos, NextCursor: nextCursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error) {
	if req.Role != nil {
		role, err := enums.ParseUserRole(strings.ToLower(strings.TrimSpace(*req.Role)))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		if err := s.repo.UpdateRole(ctx, id, role); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update role")
		}
	}

	dto := UpdateProfileDTO{Name: trimPtr(req.Name)}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := s.ensureEmailAvailable(ctx, email, id); err != nil {
			return nil, err
		}
		dto.Email = &email
	}

	user, err := s.repo.UpdateProfile(ctx, id, dto)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

func (s *service) ensureEmailAvailable(ctx context.Context, email string, selfID uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
	}
	if existing.ID != selfID {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	return nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
