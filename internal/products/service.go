package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db"
	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
)

// Service exposes catalog and seller product management operations.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor Actor, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	ListMine(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	AddReview(ctx context.Context, author ReviewAuthor, productID uuid.UUID, input ReviewInput) (*ProductDTO, error)
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ReviewAuthor carries the reviewer identity snapshot stored on the review.
type ReviewAuthor struct {
	UserID uuid.UUID
	Name   string
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURLs   []string        `json:"imageUrls"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	ImageURLs   *[]string        `json:"imageUrls,omitempty"`
}

// ReviewInput is the buyer review payload.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, input ListProductsInput) ([]models.Product, string, error)
	CreateReview(ctx context.Context, review *models.ProductReview) (*models.ProductReview, error)
	RecomputeRating(ctx context.Context, productID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      productRepository
	tx        txRunner
	repoForTx func(tx *gorm.DB) productRepository
}

// NewService constructs a product service instance.
func NewService(repo productRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		repoForTx: func(tx *gorm.DB) productRepository {
			return NewRepository(tx)
		},
	}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	model := &models.Product{
		SellerID:    sellerID,
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Category:    strings.TrimSpace(input.Category),
		Brand:       strings.TrimSpace(input.Brand),
		Stock:       input.Stock,
		ImageURLs:   append([]string{}, input.ImageURLs...),
	}

	created, err := s.repo.CreateProduct(ctx, model)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, actor Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	existing, err := s.loadOwned(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name must not be empty")
		}
		existing.Name = name
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		existing.Price = *input.Price
	}
	if input.Category != nil {
		existing.Category = strings.TrimSpace(*input.Category)
	}
	if input.Brand != nil {
		existing.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		existing.Stock = *input.Stock
	}
	if input.ImageURLs != nil {
		existing.ImageURLs = append([]string{}, (*input.ImageURLs)...)
	}

	updated, err := s.repo.UpdateProduct(ctx, existing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, productID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	detail, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return NewProductDTO(detail), nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{Products: dtos, NextCursor: nextCursor}, nil
}

func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewProductDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) AddReview(ctx context.Context, author ReviewAuthor, productID uuid.UUID, input ReviewInput) (*ProductDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoForTx(tx)

		if _, err := repo.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		review := &models.ProductReview{
			ProductID: productID,
			UserID:    author.UserID,
			UserName:  author.Name,
			Rating:    input.Rating,
			Comment:   strings.TrimSpace(input.Comment),
		}
		if _, err := repo.CreateReview(ctx, review); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		if err := repo.RecomputeRating(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recompute rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, productID)
}

func (s *service) loadOwned(ctx context.Context, actor Actor, productID uuid.UUID) (*models.Product, error) {
	existing, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if actor.Role != enums.UserRoleAdmin && existing.SellerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}
	return existing, nil
}
