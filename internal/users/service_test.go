package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/config"
	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(seed ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
	for _, u := range seed {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, params pagination.Params) ([]models.User, string, error) {
	rows := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		rows = append(rows, *u)
	}
	return rows, "", nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	if dto.PasswordHash != nil {
		u.PasswordHash = *dto.PasswordHash
	}
	if dto.Addresses != nil {
		u.Addresses = dto.Addresses
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error {
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.users, id)
	return nil
}

func newTestService(t *testing.T, repo *fakeUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, PasswordConfig: config.PasswordConfig{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestUpdateProfileRejectsDuplicateEmail(t *testing.T) {
	first := &models.User{ID: uuid.New(), Name: "First", Email: "first@example.com", Role: enums.UserRoleBuyer}
	second := &models.User{ID: uuid.New(), Name: "Second", Email: "second@example.com", Role: enums.UserRoleBuyer}
	svc := newTestService(t, newFakeUserRepo(first, second))

	email := "first@example.com"
	_, err := svc.UpdateProfile(context.Background(), second.ID, UpdateProfileRequest{Email: &email})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateProfileValidatesAddresses(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Buyer", Email: "buyer@example.com", Role: enums.UserRoleBuyer}
	svc := newTestService(t, newFakeUserRepo(user))

	_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{
		Addresses: []types.Address{{City: "Pune"}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateProfileHashesPassword(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Buyer", Email: "buyer@example.com", Role: enums.UserRoleBuyer}
	repo := newFakeUserRepo(user)
	svc := newTestService(t, repo)

	password := "new-password-123"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Password: &password}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if repo.users[user.ID].PasswordHash == "" || repo.users[user.ID].PasswordHash == password {
		t.Fatal("expected password to be stored hashed")
	}
}

func TestUpdateUserRole(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Buyer", Email: "buyer@example.com", Role: enums.UserRoleBuyer}
	repo := newFakeUserRepo(user)
	svc := newTestService(t, repo)

	role := "seller"
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{Role: &role})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Role != enums.UserRoleSeller {
		t.Fatalf("expected seller role, got %s", updated.Role)
	}
}

func TestUpdateUserRejectsUnknownRole(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Buyer", Email: "buyer@example.com", Role: enums.UserRoleBuyer}
	svc := newTestService(t, newFakeUserRepo(user))

	role := "superuser"
	_, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{Role: &role})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteMissingUser(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())

	err := svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
