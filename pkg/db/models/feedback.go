package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/enums"
)

// Feedback is a support ticket raised by a profile.
type Feedback struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:feedback_user_id_idx"`
	Type      enums.FeedbackType   `gorm:"column:type;type:text;not null"`
	Message   string               `gorm:"column:message;not null"`
	Status    enums.FeedbackStatus `gorm:"column:status;type:text;not null;default:'Pending'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Feedback) TableName() string {
	return "feedback"
}

func (f *Feedback) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
