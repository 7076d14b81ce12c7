package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo       *Repository
	Products   productLoader
	ResolveURL func(string) string
	Logger     *logger.Logger
}

// Service exposes favorite management for the signed-in profile.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error)
	Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error)
	IsFavorite(ctx context.Context, userID, productID uuid.UUID) bool
}

type service struct {
	repo     *Repository
	products productLoader
	resolve  func(string) string
	logg     *logger.Logger
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("favorites repo is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repo is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		resolve:  params.ResolveURL,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error) {
	rows, err := s.repo.ListWithProducts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return NewFavoriteDTOs(rows, s.resolve), nil
}

// Toggle removes the favorite when present and adds it otherwise.
func (s *service) Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error) {
	if productID == uuid.Nil {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	if removed {
		return ToggleResult{ProductID: productID, IsFavorite: false}, nil
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return ToggleResult{ProductID: productID, IsFavorite: true}, nil
}

// IsFavorite reports false when the lookup fails.
func (s *service) IsFavorite(ctx context.Context, userID, productID uuid.UUID) bool {
	ok, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		logCtx := s.logg.WithFields(s.logg.WithUserID(ctx, userID.String()), map[string]any{
			"product_id": productID.String(),
			"error":      err.Error(),
		})
		s.logg.Warn(logCtx, "favorite lookup failed")
		return false
	}
	return ok
}
