package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout spanning one or more sellers.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	BuyerID    uuid.UUID   `json:"buyer_id"`
	SellerIDs  []uuid.UUID `json:"seller_ids"`
	ItemCount  int         `json:"item_count"`
	TotalPrice string      `json:"total_price"`
}

// LineItemStateChangedEvent is emitted when a seller advances one line item.
type LineItemStateChangedEvent struct {
	OrderID     uuid.UUID            `json:"order_id"`
	LineItemID  uuid.UUID            `json:"line_item_id"`
	SellerID    uuid.UUID            `json:"seller_id"`
	ProductName string               `json:"product_name"`
	Qty         int                  `json:"qty"`
	Status      enums.LineItemStatus `json:"status"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

// OrderStateChangedEvent surfaces the recomputed aggregate status.
type OrderStateChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	BuyerID uuid.UUID         `json:"buyer_id"`
	Status  enums.OrderStatus `json:"status"`
}
