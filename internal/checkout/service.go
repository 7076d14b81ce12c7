package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/internal/address"
	"github.com/Abhijit5011/Electromart/internal/cart"
	"github.com/Abhijit5011/Electromart/internal/orders"
	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/outbox/payloads"
	"github.com/Abhijit5011/Electromart/pkg/retry"
)

const idempotencyConstraint = "orders_user_idempotency_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressRepository interface {
	FindOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// addressRepoFactory binds address lookups to the checkout transaction.
type addressRepoFactory func(tx *gorm.DB) addressRepository

// Service places cash-on-delivery orders from the caller's cart.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

// PlaceOrderInput identifies the caller, the delivery address and the client's idempotency key.
type PlaceOrderInput struct {
	UserID         uuid.UUID
	AddressID      uuid.UUID
	IdempotencyKey string
}

// ServiceParams groups checkout dependencies.
type ServiceParams struct {
	DB        txRunner
	CartRepo  cart.CartRepository
	Orders    orders.Repository
	Addresses addressRepoFactory
	Outbox    outbox.Emitter
	Notifier  cart.Notifier
	Retry     retry.Policy
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	cartRepo  cart.CartRepository
	orders    orders.Repository
	addresses addressRepoFactory
	outbox    outbox.Emitter
	notifier  cart.Notifier
	retry     retry.Policy
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        params.DB,
		cartRepo:  params.CartRepo,
		orders:    params.Orders,
		addresses: params.Addresses,
		outbox:    params.Outbox,
		notifier:  params.Notifier,
		retry:     params.Retry,
		logg:      params.Logger,
	}, nil
}

// AddressRepoFactory adapts the address repository to the checkout transaction.
func AddressRepoFactory(repo *address.Repository) addressRepoFactory {
	return func(tx *gorm.DB) addressRepository { return repo.WithTx(tx) }
}

// PlaceOrder snapshots the cart into a Placed order, writes its line records, empties the cart
// and queues order_placed in one transaction. A key that already produced an order returns that order.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	var (
		order    *models.Order
		replayed bool
	)
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		order, replayed, err = s.placeOnce(ctx, input.UserID, input.AddressID, key)
		return err
	})
	if err != nil && db.IsUniqueViolation(err, idempotencyConstraint) {
		// a concurrent request with the same key committed first
		order, err = s.orders.FindByIdempotencyKey(ctx, input.UserID, key)
		replayed = err == nil
	}
	if err != nil {
		return nil, s.placementError(ctx, input.UserID, err)
	}

	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
		"user_id":  input.UserID.String(),
		"replayed": replayed,
		"total":    order.TotalAmount.String(),
	})
	if replayed {
		s.logg.Info(logCtx, "checkout replayed existing order")
		return order, nil
	}
	s.logg.Info(logCtx, "order placed")
	if s.notifier != nil {
		s.notifier.CartChanged(ctx, input.UserID, 0)
	}
	return order, nil
}

func (s *service) placeOnce(ctx context.Context, userID, addressID uuid.UUID, key string) (*models.Order, bool, error) {
	var (
		order    *models.Order
		replayed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		existing, err := ordersRepo.FindByIdempotencyKey(ctx, userID, key)
		switch {
		case err == nil:
			order, replayed = existing, true
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
		}

		addr, err := s.addresses(tx).FindOwned(ctx, userID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}

		lines, err := cart.LinesForCheckout(ctx, cartRepo, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		summaries, items := buildSnapshot(lines)
		totals := cart.ComputeTotals(lines)
		idemKey := key
		created := &models.Order{
			UserID:         userID,
			TotalAmount:    totals.Total,
			Status:         enums.OrderStatusPlaced,
			Address:        addr.Snapshot(),
			ItemsSummary:   summaries,
			IdempotencyKey: &idemKey,
			Items:          items,
		}
		if err := ordersRepo.Create(ctx, created); err != nil {
			if db.IsUniqueViolation(err, idempotencyConstraint) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		if err := cartRepo.DeleteAllForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleUser)},
			Data: payloads.OrderPlacedEvent{
				OrderID:     created.ID,
				UserID:      userID,
				TotalAmount: created.TotalAmount,
				ItemCount:   totals.ItemCount,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order_placed")
		}

		order = created
		return nil
	})
	return order, replayed, err
}

// placementError keeps caller mistakes as they are and reports everything else as a failed placement.
func (s *service) placementError(ctx context.Context, userID uuid.UUID, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeUnauthorized, pkgerrors.CodeForbidden, pkgerrors.CodeNotFound:
			return err
		}
	}
	s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "order placement failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeOrderPlacement, err, "order could not be placed")
}
