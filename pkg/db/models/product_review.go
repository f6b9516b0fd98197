package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductReview records one buyer rating per product.
type ProductReview struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_reviews_product_user_key"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:product_reviews_product_user_key"`
	UserName  string    `gorm:"column:user_name;not null"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
