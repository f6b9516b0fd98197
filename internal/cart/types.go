package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// ItemDTO is one cart line enriched with the product's current values.
type ItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartDTO is the buyer-facing cart payload. Prices reflect the catalog at
// read time; nothing is snapshotted before checkout.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Items      []ItemDTO       `json:"items"`
	ItemsPrice decimal.Decimal `json:"itemsPrice"`
}
