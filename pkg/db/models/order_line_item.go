package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopmandi/shopmandi-backend/pkg/enums"
)

// OrderLineItem captures the snapshot of one purchased product and its
// fulfillment state, advanced independently by the owning seller.
type OrderLineItem struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index:order_line_items_order_id_idx"`
	ProductID   uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	SellerID    uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index:order_line_items_seller_id_idx"`
	Position    int                  `gorm:"column:position;not null;default:0"`
	Name        string               `gorm:"column:name;not null"`
	Image       string               `gorm:"column:image;not null;default:''"`
	Price       decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	Qty         int                  `gorm:"column:qty;not null"`
	Status      enums.LineItemStatus `gorm:"column:status;type:line_item_status;not null;default:'pending'"`
	ConfirmedAt *time.Time           `gorm:"column:confirmed_at"`
	ShippedAt   *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt *time.Time           `gorm:"column:delivered_at"`
	CancelledAt *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
