package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
)

// Repository encapsulates order and line item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Create inserts the order together with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with its line items in checkout position order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := preloadItems(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) pageOrders(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) ([]models.Order, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := preloadItems(r.db.WithContext(ctx).Model(&models.Order{}))
	if scope != nil {
		qb = scope(qb)
	}
	if cursor != nil {
		qb = qb.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = qb.Order("orders.created_at DESC").Order("orders.id DESC").Limit(pageSize + 1).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ListByBuyer pages through a buyer's orders newest first.
func (r *Repository) ListByBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.pageOrders(ctx, params, func(db *gorm.DB) *gorm.DB {
		return db.Where("orders.user_id = ?", userID)
	})
}

// ListBySeller pages through orders containing at least one of the seller's
// line items. The whole order is returned, not just the seller's slice.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.pageOrders(ctx, params, func(db *gorm.DB) *gorm.DB {
		return db.Where("orders.id IN (SELECT order_id FROM order_line_items WHERE seller_id = ?)", sellerID)
	})
}

// ListAll pages through every order, newest first.
func (r *Repository) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	return r.pageOrders(ctx, params, nil)
}

// UpdateLineItemStatus writes the new status plus its transition timestamp.
func (r *Repository) UpdateLineItemStatus(ctx context.Context, itemID uuid.UUID, status enums.LineItemStatus, now time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case enums.LineItemStatusConfirmed:
		updates["confirmed_at"] = now
	case enums.LineItemStatusShipped:
		updates["shipped_at"] = now
	case enums.LineItemStatusDelivered:
		updates["delivered_at"] = now
	case enums.LineItemStatusCancelled:
		updates["cancelled_at"] = now
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Where("id = ?", itemID).
		UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateOrderStatus writes the recomputed aggregate status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumns(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// UpdatePayment forces the payment flags on an order.
func (r *Repository) UpdatePayment(ctx context.Context, orderID uuid.UUID, isPaid bool, paidAt *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumns(map[string]any{
			"is_paid":    isPaid,
			"paid_at":    paidAt,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns how many orders exist.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// RevenueTotal sums total_price across every order.
func (r *Repository) RevenueTotal(ctx context.Context) (decimal.Decimal, error) {
	var raw struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Total, nil
}
