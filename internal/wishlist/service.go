package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
)

// Service exposes buyer wishlist operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error)
	Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

type wishlistRepository interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     wishlistRepository
	products productLoader
}

// NewService constructs a wishlist service.
func NewService(repo wishlistRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error) {
	rows, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}

	dto := &WishlistDTO{Items: []ItemDTO{}}
	for _, row := range rows {
		product, err := s.products.FindByID(ctx, row.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wishlist product")
		}

		image := ""
		if len(product.ImageURLs) > 0 {
			image = product.ImageURLs[0]
		}
		dto.Items = append(dto.Items, ItemDTO{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     image,
			Price:     product.Price,
			Stock:     product.Stock,
			SavedAt:   row.CreatedAt,
		})
	}
	return dto, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) error {
	if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if err := s.repo.AddItem(ctx, userID, req.ProductID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	return nil
}
