package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a rating and comment left by a profile that received the product.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:reviews_product_id_idx"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
