package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
)

// NotificationDTO is the seller-facing representation of one notification.
type NotificationDTO struct {
	ID            uuid.UUID              `json:"id"`
	OrderID       uuid.UUID              `json:"orderId"`
	Type          enums.NotificationType `json:"type"`
	Message       string                 `json:"message"`
	ProductNames  []string               `json:"productNames"`
	CustomerName  string                 `json:"customerName,omitempty"`
	CustomerEmail string                 `json:"customerEmail,omitempty"`
	IsRead        bool                   `json:"isRead"`
	ReadAt        *time.Time             `json:"readAt,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// ListResult wraps one page of notifications plus the cursor for the next.
type ListResult struct {
	Notifications []NotificationDTO `json:"notifications"`
	NextCursor    string            `json:"nextCursor,omitempty"`
}

// UnreadCountDTO is returned by the unread counter endpoint.
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

func fromModel(n models.Notification) NotificationDTO {
	names := make([]string, len(n.ProductNames))
	copy(names, n.ProductNames)
	return NotificationDTO{
		ID:            n.ID,
		OrderID:       n.OrderID,
		Type:          n.Type,
		Message:       n.Message,
		ProductNames:  names,
		CustomerName:  n.CustomerName,
		CustomerEmail: n.CustomerEmail,
		IsRead:        n.IsRead,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}
