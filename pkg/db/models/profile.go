package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/enums"
)

// Profile is a registered account, either a shopper or an administrator.
type Profile struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex:profiles_email_key"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        string     `gorm:"column:phone;not null;default:''"`
	Role         enums.Role `gorm:"column:role;type:text;not null;default:'user'"`
	IsBanned     bool       `gorm:"column:is_banned;not null;default:false"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == enums.RoleAdmin
}
