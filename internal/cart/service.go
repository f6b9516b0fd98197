package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
)

// Service exposes buyer cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
}

type cartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	EnsureForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     cartRepository
	products productLoader
}

// NewService constructs a cart service.
func NewService(repo cartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.buildDTO(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	cart, err := s.repo.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure cart")
	}

	if err := s.repo.UpsertItem(ctx, cart.ID, req.ProductID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}

	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}

	return s.Get(ctx, userID)
}

func (s *service) buildDTO(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	dto := &CartDTO{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      []ItemDTO{},
		ItemsPrice: decimal.Zero,
	}

	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The product was removed from the catalog; the line is
				// no longer purchasable so it is hidden from the payload.
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart product")
		}

		image := ""
		if len(product.ImageURLs) > 0 {
			image = product.ImageURLs[0]
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		dto.Items = append(dto.Items, ItemDTO{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     image,
			Price:     product.Price,
			Stock:     product.Stock,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		dto.ItemsPrice = dto.ItemsPrice.Add(subtotal)
	}

	return dto, nil
}

func emptyCart(userID uuid.UUID) *CartDTO {
	return &CartDTO{
		UserID:     userID,
		Items:      []ItemDTO{},
		ItemsPrice: decimal.Zero,
	}
}
