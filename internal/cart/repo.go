package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser returns the buyer's cart with items, oldest item first.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// EnsureForUser returns the buyer's cart, creating the row when absent. The
// unique user_id key makes concurrent creation safe.
func (r *Repository) EnsureForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(cart).Error
	if err != nil {
		return nil, err
	}
	// DoNothing leaves the generated ID empty when the row already existed.
	var persisted models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&persisted).Error; err != nil {
		return nil, err
	}
	return &persisted, nil
}

// UpsertItem adds the quantity to the existing line or inserts a new one in a
// single statement, so concurrent adds accumulate instead of clobbering.
func (r *Repository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	item := &models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(item).Error
}

// RemoveItem deletes the product line from the cart.
func (r *Repository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
