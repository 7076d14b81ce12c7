package cart

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

// Service manages the owner's cart lines.
type Service interface {
	ListCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	AddToCart(ctx context.Context, userID, productID uuid.UUID) (LineDTO, error)
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (LineDTO, error)
	IncrementQuantity(ctx context.Context, userID, lineID uuid.UUID) (LineDTO, error)
	DecrementQuantity(ctx context.Context, userID, lineID uuid.UUID) (LineDTO, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo       CartRepository
	Products   ProductLoader
	Notifier   Notifier
	ResolveURL func(string) string
	Logger     *logger.Logger
}

type service struct {
	repo     CartRepository
	products ProductLoader
	notifier Notifier
	resolve  func(string) string
	logg     *logger.Logger
}

// NewService builds a cart service. A nil notifier disables change notifications.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		notifier: notifier,
		resolve:  params.ResolveURL,
		logg:     params.Logger,
	}, nil
}

func (s *service) ListCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	lines, err := s.repo.ListWithProducts(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	items := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		items = append(items, newLineDTO(line, s.resolve))
	}
	return CartDTO{Items: items, Totals: ComputeTotals(lines)}, nil
}

// AddToCart puts the product in the cart with quantity 1. Re-adding resets the line to 1.
func (s *service) AddToCart(ctx context.Context, userID, productID uuid.UUID) (LineDTO, error) {
	if productID == uuid.Nil {
		return LineDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LineDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return LineDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	line, err := s.repo.UpsertSingle(ctx, userID, productID)
	if err != nil {
		return LineDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add to cart")
	}
	s.notify(ctx, userID)
	return newLineDTO(*line, s.resolve), nil
}

// UpdateQuantity sets an explicit quantity, flooring values below 1 at 1.
func (s *service) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (LineDTO, error) {
	if qty < 1 {
		qty = 1
	}
	found, err := s.repo.SetQuantity(ctx, userID, lineID, qty)
	return s.afterLineWrite(ctx, userID, lineID, found, err)
}

func (s *service) IncrementQuantity(ctx context.Context, userID, lineID uuid.UUID) (LineDTO, error) {
	found, err := s.repo.StepQuantity(ctx, userID, lineID, 1)
	return s.afterLineWrite(ctx, userID, lineID, found, err)
}

func (s *service) DecrementQuantity(ctx context.Context, userID, lineID uuid.UUID) (LineDTO, error) {
	found, err := s.repo.StepQuantity(ctx, userID, lineID, -1)
	return s.afterLineWrite(ctx, userID, lineID, found, err)
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	found, err := s.repo.Delete(ctx, userID, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	s.notify(ctx, userID)
	return nil
}

func (s *service) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart lines")
	}
	return count, nil
}

func (s *service) afterLineWrite(ctx context.Context, userID, lineID uuid.UUID, found bool, err error) (LineDTO, error) {
	if err != nil {
		return LineDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if !found {
		return LineDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	line, err := s.repo.FindOwned(ctx, userID, lineID)
	if err != nil {
		return LineDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart line")
	}
	s.notify(ctx, userID)
	return newLineDTO(*line, s.resolve), nil
}

func (s *service) notify(ctx context.Context, userID uuid.UUID) {
	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart count for notification failed")
		return
	}
	s.notifier.CartChanged(ctx, userID, count)
}

// LinesForCheckout loads the lines checkout snapshots. It is bound to the caller's transaction.
func LinesForCheckout(ctx context.Context, repo CartRepository, userID uuid.UUID) ([]models.CartItem, error) {
	lines, err := repo.ListWithProducts(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := lines[:0]
	for _, line := range lines {
		if line.Product != nil {
			out = append(out, line)
		}
	}
	return out, nil
}

type noopNotifier struct{}

func (noopNotifier) CartChanged(context.Context, uuid.UUID, int64) {}
