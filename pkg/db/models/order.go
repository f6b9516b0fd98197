package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

// Order is the buyer-facing aggregate covering every line item in a checkout.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	IsPaid          bool                `gorm:"column:is_paid;not null;default:false"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	ItemsPrice      decimal.Decimal     `gorm:"column:items_price;type:numeric(12,2);not null"`
	TaxPrice        decimal.Decimal     `gorm:"column:tax_price;type:numeric(12,2);not null"`
	ShippingPrice   decimal.Decimal     `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	TotalPrice      decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Items           []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
