package notifications

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
)

// OrderPlacedInput carries what the fan-out needs about a fresh order.
type OrderPlacedInput struct {
	OrderID    uuid.UUID
	BuyerName  string
	BuyerEmail string
	Items      []models.OrderLineItem
}

// BuildOrderPlaced produces one notification per distinct seller in the
// order. Each seller only sees the names of their own products. Sellers are
// emitted in first-appearance order so the result is deterministic.
func BuildOrderPlaced(input OrderPlacedInput) []models.Notification {
	sellerOrder := make([]uuid.UUID, 0, len(input.Items))
	namesBySeller := make(map[uuid.UUID][]string)
	for _, item := range input.Items {
		if _, seen := namesBySeller[item.SellerID]; !seen {
			sellerOrder = append(sellerOrder, item.SellerID)
		}
		namesBySeller[item.SellerID] = append(namesBySeller[item.SellerID], item.Name)
	}

	rows := make([]models.Notification, 0, len(sellerOrder))
	for _, sellerID := range sellerOrder {
		names := namesBySeller[sellerID]
		rows = append(rows, models.Notification{
			SellerID:      sellerID,
			OrderID:       input.OrderID,
			Type:          enums.NotificationTypeOrderPlaced,
			Message:       orderPlacedMessage(input.BuyerName, len(names)),
			ProductNames:  names,
			CustomerName:  input.BuyerName,
			CustomerEmail: input.BuyerEmail,
		})
	}
	return rows
}

func orderPlacedMessage(buyerName string, itemCount int) string {
	noun := "products"
	if itemCount == 1 {
		noun = "product"
	}
	if buyerName == "" {
		return fmt.Sprintf("New order placed for %d of your %s", itemCount, noun)
	}
	return fmt.Sprintf("%s placed an order for %d of your %s", buyerName, itemCount, noun)
}
