package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopmandi/shopmandi-backend/pkg/enums"
)

// Notification is a per-seller event record produced during order fan-out.
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index:notifications_seller_id_idx"`
	OrderID       uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	Type          enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Message       string                 `gorm:"column:message;not null"`
	ProductNames  pq.StringArray         `gorm:"column:product_names;type:text[];not null;default:ARRAY[]::text[]"`
	CustomerName  string                 `gorm:"column:customer_name;not null;default:''"`
	CustomerEmail string                 `gorm:"column:customer_email;not null;default:''"`
	IsRead        bool                   `gorm:"column:is_read;not null;default:false"`
	ReadAt        *time.Time             `gorm:"column:read_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
