package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// DeliveredSummaries lists the item snapshots of a user's delivered orders.
type DeliveredSummaries interface {
	ListDeliveredSummaries(ctx context.Context, userID uuid.UUID) ([]types.OrderItemSummaries, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages product reviews.
type Service interface {
	CanReview(ctx context.Context, userID, productID uuid.UUID) bool
	Create(ctx context.Context, userID, productID uuid.UUID, input CreateInput) (ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) (ProductReviews, error)
	AdminList(ctx context.Context, params pagination.Params) (AdminReviewPage, error)
	Delete(ctx context.Context, reviewID uuid.UUID) error
}

// ServiceParams groups review dependencies.
type ServiceParams struct {
	Repo       *Repository
	Orders     DeliveredSummaries
	Products   productLoader
	ResolveURL func(string) string
	Logger     *logger.Logger
}

type service struct {
	repo     *Repository
	orders   DeliveredSummaries
	products productLoader
	resolve  func(string) string
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("review repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order lookup required")
	case params.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		products: params.Products,
		resolve:  params.ResolveURL,
		logg:     params.Logger,
	}, nil
}

// CanReview scans the user's delivered orders on every call. Lookup failures answer false.
func (s *service) CanReview(ctx context.Context, userID, productID uuid.UUID) bool {
	if userID == uuid.Nil || productID == uuid.Nil {
		return false
	}
	summaries, err := s.orders.ListDeliveredSummaries(ctx, userID)
	if err != nil {
		logCtx := s.logg.WithFields(s.logg.WithUserID(ctx, userID.String()), map[string]any{
			"product_id": productID.String(),
			"error":      err.Error(),
		})
		s.logg.Warn(logCtx, "review eligibility lookup failed")
		return false
	}
	for _, items := range summaries {
		if items.Contains(productID) {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, input CreateInput) (ReviewDTO, error) {
	comment := strings.TrimSpace(input.Comment)
	details := map[string]any{}
	if input.Rating < 1 || input.Rating > 5 {
		details["rating"] = "must be between 1 and 5"
	}
	if comment == "" {
		details["comment"] = "required"
	}
	if len(details) > 0 {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid review").WithDetails(details)
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !s.CanReview(ctx, userID, productID) {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "only customers who received this product can review it")
	}

	review := &models.Review{UserID: userID, ProductID: productID, Rating: input.Rating, Comment: comment}
	if err := s.repo.Create(ctx, review); err != nil {
		return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	logCtx := s.logg.WithFields(s.logg.WithUserID(ctx, userID.String()), map[string]any{
		"product_id": productID.String(),
		"rating":     input.Rating,
	})
	s.logg.Info(logCtx, "review posted")

	return ReviewDTO{
		ID:        review.ID,
		ProductID: productID,
		UserID:    userID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) (ProductReviews, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return ProductReviews{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	items := make([]ReviewDTO, 0, len(rows))
	ratings := make([]int, 0, len(rows))
	for _, row := range rows {
		items = append(items, newReviewDTO(row))
		ratings = append(ratings, row.Rating)
	}
	return ProductReviews{Items: items, Average: AverageRating(ratings), Count: len(items)}, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (AdminReviewPage, error) {
	rows, next, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return AdminReviewPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	items := make([]AdminReviewDTO, 0, len(rows))
	for _, row := range rows {
		image := row.ProductImages.First()
		if image != "" && s.resolve != nil {
			image = s.resolve(image)
		}
		items = append(items, AdminReviewDTO{
			ReviewDTO:     newReviewDTO(row.ProductReviewRow),
			ProductName:   row.ProductName,
			ProductImage:  image,
			ReviewerPhone: row.ReviewerPhone,
		})
	}
	return AdminReviewPage{Items: items, NextCursor: next}, nil
}

func (s *service) Delete(ctx context.Context, reviewID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, reviewID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}
