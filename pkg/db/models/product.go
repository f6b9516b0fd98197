package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a seller listing.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index:products_seller_id_idx"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Category    string          `gorm:"column:category;not null;default:''"`
	Brand       string          `gorm:"column:brand;not null;default:''"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	ImageURLs   pq.StringArray  `gorm:"column:image_urls;type:text[];not null;default:ARRAY[]::text[]"`
	Rating      float64         `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	NumReviews  int             `gorm:"column:num_reviews;not null;default:0"`
	Reviews     []ProductReview `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
