package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
)

// Repository exposes persistence helpers for seller notifications.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a notifications repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateBatch inserts the fan-out rows produced during order creation.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Create inserts a single notification row.
func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

type listParams struct {
	SellerID   uuid.UUID
	UnreadOnly bool
	Pagination pagination.Params
}

// List pages through a seller's notifications newest first.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.Notification, string, error) {
	pageSize := pagination.NormalizeLimit(params.Pagination.Limit)
	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("seller_id = ?", params.SellerID)
	if params.UnreadOnly {
		qb = qb.Where("NOT is_read")
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Notification
	err = qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&rows).Error
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

// UnreadCount returns how many notifications the seller has not read yet.
func (r *Repository) UnreadCount(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("seller_id = ? AND NOT is_read", sellerID).
		Count(&count).Error
	return count, err
}

type markResult struct {
	Found     bool
	OwnedByMe bool
	Updated   bool
}

// MarkRead flips one notification to read when it belongs to the seller.
// Marking an already-read row is a no-op reported as Updated=false.
func (r *Repository) MarkRead(ctx context.Context, id, sellerID uuid.UUID, now time.Time) (markResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND seller_id = ? AND NOT is_read", id, sellerID).
		UpdateColumns(map[string]any{"is_read": true, "read_at": now})
	if result.Error != nil {
		return markResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return markResult{Found: true, OwnedByMe: true, Updated: true}, nil
	}

	var row models.Notification
	err := r.db.WithContext(ctx).Select("id", "seller_id").First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return markResult{}, nil
	}
	if err != nil {
		return markResult{}, err
	}
	return markResult{Found: true, OwnedByMe: row.SellerID == sellerID}, nil
}

// MarkAllRead flips every unread notification for the seller and returns the count.
func (r *Repository) MarkAllRead(ctx context.Context, sellerID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("seller_id = ? AND NOT is_read", sellerID).
		UpdateColumns(map[string]any{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
