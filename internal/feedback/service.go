package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

const maxMessageLength = 2000

// FeedbackDTO is a ticket as its author sees it.
type FeedbackDTO struct {
	ID        uuid.UUID            `json:"id"`
	Type      enums.FeedbackType   `json:"type"`
	Message   string               `json:"message"`
	Status    enums.FeedbackStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// Author is the ticket owner's contact shown to admins.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// AdminFeedbackDTO adds the author.
type AdminFeedbackDTO struct {
	FeedbackDTO
	UserID uuid.UUID `json:"user_id"`
	Author Author    `json:"author"`
}

// AdminPage is a cursor page of tickets.
type AdminPage struct {
	Items      []AdminFeedbackDTO `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// CreateInput is a new ticket.
type CreateInput struct {
	Type    string `json:"type" validate:"required,oneof=Feedback Complaint"`
	Message string `json:"message" validate:"required"`
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (FeedbackDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]FeedbackDTO, error)
	AdminList(ctx context.Context, filter AdminFilter, params pagination.Params) (AdminPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (FeedbackDTO, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("feedback repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (FeedbackDTO, error) {
	kind, err := enums.ParseFeedbackType(strings.TrimSpace(input.Type))
	details := map[string]any{}
	if err != nil {
		details["type"] = "must be Feedback or Complaint"
	}
	message := strings.TrimSpace(input.Message)
	switch {
	case message == "":
		details["message"] = "required"
	case len(message) > maxMessageLength:
		details["message"] = fmt.Sprintf("must be at most %d characters", maxMessageLength)
	}
	if len(details) > 0 {
		return FeedbackDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid feedback").WithDetails(details)
	}

	row := &models.Feedback{UserID: userID, Type: kind, Message: message, Status: enums.FeedbackStatusPending}
	if err := s.repo.Create(ctx, row); err != nil {
		return FeedbackDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create feedback")
	}
	s.logg.Info(s.logg.WithField(s.logg.WithUserID(ctx, userID.String()), "type", kind), "feedback submitted")
	return toDTO(*row), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]FeedbackDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feedback")
	}
	out := make([]FeedbackDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

// AdminFilter holds the raw status and type filters from the admin ticket list.
type AdminFilter struct {
	Status string
	Type   string
}

func (s *service) AdminList(ctx context.Context, input AdminFilter, params pagination.Params) (AdminPage, error) {
	var filter ListFilter
	if trimmed := strings.TrimSpace(input.Status); trimmed != "" {
		parsed, err := enums.ParseFeedbackStatus(trimmed)
		if err != nil {
			return AdminPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
				WithDetails(map[string]any{"field": "status"})
		}
		filter.Status = parsed
	}
	if trimmed := strings.TrimSpace(input.Type); trimmed != "" {
		parsed, err := enums.ParseFeedbackType(trimmed)
		if err != nil {
			return AdminPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter").
				WithDetails(map[string]any{"field": "type"})
		}
		filter.Type = parsed
	}
	rows, next, err := s.repo.ListPage(ctx, filter, params)
	if err != nil {
		return AdminPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feedback")
	}
	items := make([]AdminFeedbackDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, AdminFeedbackDTO{
			FeedbackDTO: FeedbackDTO{
				ID:        row.ID,
				Type:      row.Type,
				Message:   row.Message,
				Status:    row.Status,
				CreatedAt: row.CreatedAt,
			},
			UserID: row.UserID,
			Author: Author{Name: row.AuthorName, Email: row.AuthorEmail, Phone: row.AuthorPhone},
		})
	}
	return AdminPage{Items: items, NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (FeedbackDTO, error) {
	parsed, err := enums.ParseFeedbackStatus(strings.TrimSpace(status))
	if err != nil {
		return FeedbackDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	found, err := s.repo.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return FeedbackDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update feedback")
	}
	if !found {
		return FeedbackDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "feedback not found")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FeedbackDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "feedback not found")
		}
		return FeedbackDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feedback")
	}
	return toDTO(*row), nil
}

func toDTO(row models.Feedback) FeedbackDTO {
	return FeedbackDTO{
		ID:        row.ID,
		Type:      row.Type,
		Message:   row.Message,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
}
