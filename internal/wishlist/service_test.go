package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
)

type fakeWishlistRepo struct {
	items map[uuid.UUID]map[uuid.UUID]models.WishlistItem
}

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{items: map[uuid.UUID]map[uuid.UUID]models.WishlistItem{}}
}

func (f *fakeWishlistRepo) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if f.items[userID] == nil {
		f.items[userID] = map[uuid.UUID]models.WishlistItem{}
	}
	if _, exists := f.items[userID][productID]; exists {
		return nil
	}
	f.items[userID][productID] = models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	}
	return nil
}

func (f *fakeWishlistRepo) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	delete(f.items[userID], productID)
	return nil
}

func (f *fakeWishlistRepo) ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	for _, item := range f.items[userID] {
		rows = append(rows, item)
	}
	return rows, nil
}

type fakeCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newWishlistTestService(t *testing.T, products ...*models.Product) (Service, *fakeWishlistRepo) {
	t.Helper()
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	repo := newFakeWishlistRepo()
	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestAddIsIdempotent(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Clay Pot", Price: decimal.NewFromInt(100)}
	svc, repo := newWishlistTestService(t, product)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if err := svc.Add(context.Background(), userID, AddItemRequest{ProductID: product.ID}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	if len(repo.items[userID]) != 1 {
		t.Fatalf("expected single wishlist entry, got %d", len(repo.items[userID]))
	}
}

func TestAddRejectsUnknownProduct(t *testing.T) {
	svc, _ := newWishlistTestService(t)

	err := svc.Add(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListSkipsDeletedProducts(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Clay Pot", Price: decimal.NewFromInt(100)}
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{product.ID: product}}
	repo := newFakeWishlistRepo()
	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	userID := uuid.New()

	if err := svc.Add(context.Background(), userID, AddItemRequest{ProductID: product.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}

	delete(catalog.products, product.ID)

	dto, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected deleted product hidden, got %d items", len(dto.Items))
	}
}

func TestRemoveMissingItemIsNoop(t *testing.T) {
	svc, _ := newWishlistTestService(t)

	if err := svc.Remove(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
