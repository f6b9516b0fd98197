package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

// OrderItemInput is one requested product/quantity pair at checkout.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the checkout payload. Prices are recomputed
// server-side from the product rows; tax and shipping are taken as given.
type CreateOrderRequest struct {
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string           `json:"paymentMethod" validate:"required"`
	ShippingAddress types.Address    `json:"shippingAddress" validate:"required"`
	TaxPrice        decimal.Decimal  `json:"taxPrice"`
	ShippingPrice   decimal.Decimal  `json:"shippingPrice"`
}

// LineItemDTO is the wire shape of one order line item.
type LineItemDTO struct {
	ID          uuid.UUID            `json:"id"`
	ProductID   uuid.UUID            `json:"productId"`
	SellerID    uuid.UUID            `json:"sellerId"`
	Name        string               `json:"name"`
	Image       string               `json:"image,omitempty"`
	Price       decimal.Decimal      `json:"price"`
	Qty         int                  `json:"qty"`
	Status      enums.LineItemStatus `json:"status"`
	ConfirmedAt *time.Time           `json:"confirmedAt,omitempty"`
	ShippedAt   *time.Time           `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time           `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time           `json:"cancelledAt,omitempty"`
}

// OrderDTO is the wire shape of an order aggregate.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"userId"`
	Items           []LineItemDTO       `json:"items"`
	ShippingAddress types.Address       `json:"shippingAddress"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	IsPaid          bool                `json:"isPaid"`
	PaidAt          *time.Time          `json:"paidAt,omitempty"`
	ItemsPrice      decimal.Decimal     `json:"itemsPrice"`
	TaxPrice        decimal.Decimal     `json:"taxPrice"`
	ShippingPrice   decimal.Decimal     `json:"shippingPrice"`
	TotalPrice      decimal.Decimal     `json:"totalPrice"`
	Status          enums.OrderStatus   `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// OrderListResult wraps one page of orders plus the next page cursor.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func lineItemFromModel(item models.OrderLineItem) LineItemDTO {
	return LineItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		SellerID:    item.SellerID,
		Name:        item.Name,
		Image:       item.Image,
		Price:       item.Price,
		Qty:         item.Qty,
		Status:      item.Status,
		ConfirmedAt: item.ConfirmedAt,
		ShippedAt:   item.ShippedAt,
		DeliveredAt: item.DeliveredAt,
		CancelledAt: item.CancelledAt,
	}
}

func fromModel(order *models.Order) *OrderDTO {
	items := make([]LineItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, lineItemFromModel(item))
	}
	return &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		Items:           items,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		IsPaid:          order.IsPaid,
		PaidAt:          order.PaidAt,
		ItemsPrice:      order.ItemsPrice,
		TaxPrice:        order.TaxPrice,
		ShippingPrice:   order.ShippingPrice,
		TotalPrice:      order.TotalPrice,
		Status:          order.Status,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
