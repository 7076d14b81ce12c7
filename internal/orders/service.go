package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/outbox/payloads"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

// Service exposes order history, shopper cancellation and admin status changes.
type Service interface {
	ListMyOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error)
	ListAllOrders(ctx context.Context, params pagination.Params) (AdminOrderPage, error)
	UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, to enums.OrderStatus) (OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockRepoFactory binds the stock repository to the status transaction.
type stockRepoFactory func(tx *gorm.DB) StockRepository

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	DB         txRunner
	Repo       Repository
	Stock      stockRepoFactory
	Profiles   ProfileLookup
	Outbox     outbox.Emitter
	ResolveURL func(string) string
	Logger     *logger.Logger
}

type service struct {
	db       txRunner
	repo     Repository
	stock    stockRepoFactory
	profiles ProfileLookup
	outbox   outbox.Emitter
	resolve  func(string) string
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	case params.Repo == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock repository required")
	case params.Profiles == nil:
		return nil, fmt.Errorf("profile lookup required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		stock:    params.Stock,
		profiles: params.Profiles,
		outbox:   params.Outbox,
		resolve:  params.ResolveURL,
		logg:     params.Logger,
	}, nil
}

func (s *service) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewOrderDTO(row, s.resolve))
	}
	return out, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err != nil {
		return OrderDTO{}, mapLoadError(err)
	}
	return NewOrderDTO(*order, s.resolve), nil
}

// CancelOrder cancels an owned order only while it is still Placed.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error) {
	var result *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cancelled, err := repo.CancelIfPlaced(ctx, userID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		order, err := repo.FindOwned(ctx, userID, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only placed orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}
		result = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleUser)},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				CancelledAt: order.UpdatedAt,
			},
		})
	})
	if err != nil {
		return OrderDTO{}, asTyped(err, "cancel order")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order cancelled by owner")
	return NewOrderDTO(*result, s.resolve), nil
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params) (AdminOrderPage, error) {
	rows, next, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return AdminOrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if _, ok := seen[row.UserID]; !ok {
			seen[row.UserID] = struct{}{}
			ids = append(ids, row.UserID)
		}
	}
	customers := map[uuid.UUID]*Customer{}
	if len(ids) > 0 {
		profiles, err := s.profiles.FindByIDs(ctx, ids)
		if err != nil {
			return AdminOrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order owners")
		}
		for _, p := range profiles {
			customers[p.ID] = &Customer{Name: p.Name, Email: p.Email, Phone: p.Phone}
		}
	}

	items := make([]AdminOrderDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, AdminOrderDTO{OrderDTO: NewOrderDTO(row, s.resolve), Customer: customers[row.UserID]})
	}
	return AdminOrderPage{Items: items, NextCursor: next}, nil
}

// UpdateStatus applies an admin transition. Entering Delivered claims fulfillment and
// decrements stock by the frozen summary quantities exactly once.
func (s *service) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, to enums.OrderStatus) (OrderDTO, error) {
	if !to.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var result *models.Order
	decremented := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}

		from := order.Status
		if !from.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]any{"from": from, "to": to})
		}

		moved, err := repo.UpdateStatusFrom(ctx, orderID, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
				WithDetails(map[string]any{"from": from, "to": to})
		}

		if to == enums.OrderStatusDelivered {
			if decremented, err = s.applyFulfillment(ctx, tx, repo, order); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.RoleAdmin)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
				From:    from,
				To:      to,
			},
		}); err != nil {
			return err
		}

		result, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		return nil
	})
	if err != nil {
		return OrderDTO{}, asTyped(err, "update order status")
	}

	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
		"status":            to,
		"stock_decremented": decremented,
	})
	s.logg.Info(logCtx, "order status updated")
	return NewOrderDTO(*result, s.resolve), nil
}

func (s *service) applyFulfillment(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
	claimed, err := repo.ClaimFulfillment(ctx, order.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim fulfillment")
	}
	if !claimed {
		return false, nil
	}

	stock := s.stock(tx)
	lines := make([]payloads.StockLine, 0, len(order.ItemsSummary))
	for _, item := range order.ItemsSummary {
		if err := stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		lines = append(lines, payloads.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockDecremented,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data:          payloads.StockDecrementedEvent{OrderID: order.ID, Lines: lines},
	}); err != nil {
		return false, err
	}
	return true, nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func asTyped(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
