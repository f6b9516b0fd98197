package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"sellerId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Stock       int             `json:"stock"`
	ImageURLs   []string        `json:"imageUrls"`
	Rating      float64         `json:"rating"`
	NumReviews  int             `json:"numReviews"`
	Reviews     []ReviewDTO     `json:"reviews,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ReviewDTO is a single buyer review on a product.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductListResult is a cursor page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		SellerID:    product.SellerID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    product.Category,
		Brand:       product.Brand,
		Stock:       product.Stock,
		ImageURLs:   append([]string{}, product.ImageURLs...),
		Rating:      product.Rating,
		NumReviews:  product.NumReviews,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, review := range product.Reviews {
		dto.Reviews = append(dto.Reviews, ReviewDTO{
			ID:        review.ID,
			UserID:    review.UserID,
			UserName:  review.UserName,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: review.CreatedAt,
		})
	}
	return dto
}
