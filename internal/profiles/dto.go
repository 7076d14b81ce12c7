package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/Abhijit5011/Electromart/internal/cart"
	"github.com/Abhijit5011/Electromart/internal/favorites"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
)

// ProfileDTO is the transport shape that omits the password hash.
type ProfileDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Role      enums.Role `json:"role"`
	IsBanned  bool       `json:"is_banned"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ProfilePage is a cursor page for the admin user table.
type ProfilePage struct {
	Items      []ProfileDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// UserDetails is the admin drill-down of one profile.
type UserDetails struct {
	Profile   ProfileDTO              `json:"profile"`
	Addresses []models.Address        `json:"addresses"`
	Cart      []cart.LineDTO          `json:"cart"`
	Favorites []favorites.FavoriteDTO `json:"favorites"`
}

// UpdateInput carries the editable contact fields.
type UpdateInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

// FromModel maps a profile row.
func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Role:      p.Role,
		IsBanned:  p.IsBanned,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
