package wishlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the payload for saving a product.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// ItemDTO is one saved product with its current catalog values.
type ItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	SavedAt   time.Time       `json:"savedAt"`
}

// WishlistDTO is the buyer's saved-product collection.
type WishlistDTO struct {
	Items []ItemDTO `json:"items"`
}
