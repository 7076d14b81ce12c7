package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

// ListFilter narrows the admin ticket list. Zero values match everything.
type ListFilter struct {
	Status enums.FeedbackStatus
	Type   enums.FeedbackType
}

// AdminRow is a ticket joined with its author's contact details.
type AdminRow struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        enums.FeedbackType
	Message     string
	Status      enums.FeedbackStatus
	CreatedAt   time.Time
	AuthorName  string
	AuthorEmail string
	AuthorPhone string
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, row *models.Feedback) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListByUser returns the user's tickets newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Feedback, error) {
	rows := []models.Feedback{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListPage returns all tickets newest first, optionally filtered by status.
func (r *Repository) ListPage(ctx context.Context, filter ListFilter, params pagination.Params) ([]AdminRow, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := r.db.WithContext(ctx).
		Table("feedback AS f").
		Select(`f.id, f.user_id, f.type, f.message, f.status, f.created_at,
			COALESCE(p.name, '') AS author_name, COALESCE(p.email, '') AS author_email, COALESCE(p.phone, '') AS author_phone`).
		Joins("LEFT JOIN profiles p ON p.id = f.user_id")
	if filter.Status != "" {
		query = query.Where("f.status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("f.type = ?", filter.Type)
	}
	query = db.WhereContainsAny(query, params.Query, "f.message", "p.name", "p.email", "p.phone")
	if cursor != nil {
		query = query.Where("(f.created_at < ?) OR (f.created_at = ? AND f.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	rows := []AdminRow{}
	if err := query.Order("f.created_at DESC").Order("f.id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Scan(&rows).Error; err != nil {
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

// UpdateStatus sets the ticket status and reports whether the ticket exists.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.FeedbackStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var row models.Feedback
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).Count(&count).Error
	return count, err
}
