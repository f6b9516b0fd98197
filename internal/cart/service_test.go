package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
)

type fakeCartRepo struct {
	carts map[uuid.UUID]*models.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (f *fakeCartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if cart, ok := f.carts[userID]; ok {
		copied := *cart
		copied.Items = append([]models.CartItem(nil), cart.Items...)
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) EnsureForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if cart, ok := f.carts[userID]; ok {
		return cart, nil
	}
	cart := &models.Cart{ID: uuid.New(), UserID: userID}
	f.carts[userID] = cart
	return cart, nil
}

func (f *fakeCartRepo) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	for _, cart := range f.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity += quantity
				return nil
			}
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:        uuid.New(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
		})
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	for _, cart := range f.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
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

func newCartTestService(t *testing.T, products ...*models.Product) (Service, *fakeCartRepo) {
	t.Helper()
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	repo := newFakeCartRepo()
	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func catalogProduct(name string, price int64) *models.Product {
	return &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: 10,
	}
}

func TestGetReturnsEmptyCartWhenAbsent(t *testing.T) {
	svc, _ := newCartTestService(t)
	userID := uuid.New()

	dto, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if dto.UserID != userID {
		t.Fatalf("expected cart for %s, got %s", userID, dto.UserID)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(dto.Items))
	}
	if !dto.ItemsPrice.IsZero() {
		t.Fatalf("expected zero total, got %s", dto.ItemsPrice)
	}
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	product := catalogProduct("Clay Pot", 100)
	svc, _ := newCartTestService(t, product)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	dto, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(dto.Items) != 1 {
		t.Fatalf("expected single line, got %d", len(dto.Items))
	}
	if dto.Items[0].Quantity != 5 {
		t.Fatalf("expected accumulated quantity 5, got %d", dto.Items[0].Quantity)
	}
	if !dto.ItemsPrice.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected total 500, got %s", dto.ItemsPrice)
	}
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	svc, _ := newCartTestService(t)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	product := catalogProduct("Clay Pot", 100)
	svc, _ := newCartTestService(t, product)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: product.ID, Quantity: 0})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	product := catalogProduct("Clay Pot", 100)
	svc, _ := newCartTestService(t, product)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	dto, err := svc.RemoveItem(context.Background(), userID, product.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected empty cart after remove, got %d items", len(dto.Items))
	}

	_, err = svc.RemoveItem(context.Background(), userID, product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestGetSkipsDeletedProducts(t *testing.T) {
	product := catalogProduct("Clay Pot", 100)
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{product.ID: product}}
	repo := newFakeCartRepo()
	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	delete(catalog.products, product.ID)

	dto, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected deleted product hidden, got %d items", len(dto.Items))
	}
}
