package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/types"
)

// Address is a saved shipping destination owned by one profile.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx" json:"user_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Phone       string    `gorm:"column:phone;not null" json:"phone"`
	AddressLine string    `gorm:"column:address_line;not null" json:"address_line"`
	City        string    `gorm:"column:city;not null" json:"city"`
	State       string    `gorm:"column:state;not null" json:"state"`
	Pincode     string    `gorm:"column:pincode;not null" json:"pincode"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Snapshot copies the address into the shape frozen onto orders.
func (a Address) Snapshot() types.AddressSnapshot {
	return types.AddressSnapshot{
		ID:          a.ID,
		Name:        a.Name,
		Phone:       a.Phone,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		Pincode:     a.Pincode,
	}
}
