package profiles

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

// Repository exposes profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new profile.
func (r *Repository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindByEmail retrieves the profile matching the lower-cased email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByID loads a profile by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByIDs batch-loads profiles. Missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	rows := []models.Profile{}
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// UpdateContact overwrites name and phone.
func (r *Repository) UpdateContact(ctx context.Context, id uuid.UUID, name, phone string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "phone": phone})
	return res.RowsAffected > 0, res.Error
}

// SetBanned flips the ban flag on a non-admin profile.
func (r *Repository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ? AND role <> ?", id, enums.RoleAdmin).
		Update("is_banned", banned)
	return res.RowsAffected > 0, res.Error
}

// Delete removes a non-admin profile. Owned rows cascade in the schema.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND role <> ?", id, enums.RoleAdmin).
		Delete(&models.Profile{})
	return res.RowsAffected > 0, res.Error
}

// IsBanned reads only the ban flag.
func (r *Repository) IsBanned(ctx context.Context, id uuid.UUID) (bool, error) {
	var flags []bool
	err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("is_banned", &flags).Error
	if err != nil {
		return false, err
	}
	if len(flags) == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return flags[0], nil
}

// Count returns the number of profiles.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&count).Error
	return count, err
}

// ListPage returns profiles newest first using cursor pagination. params.Query matches name, email or phone.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Profile, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := db.WhereContainsAny(r.db.WithContext(ctx).Model(&models.Profile{}), params.Query, "name", "email", "phone")
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	rows := []models.Profile{}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) <= limit {
		return rows, "", nil
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return rows, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}), nil
}
