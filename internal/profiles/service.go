package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/internal/cart"
	"github.com/Abhijit5011/Electromart/internal/favorites"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/outbox/payloads"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

// Service covers self-service profile reads and the admin user table.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateInput) (*ProfileDTO, error)
	AdminList(ctx context.Context, params pagination.Params) (ProfilePage, error)
	ToggleBan(ctx context.Context, adminID, userID uuid.UUID) (*ProfileDTO, error)
	Delete(ctx context.Context, adminID, userID uuid.UUID) error
	Details(ctx context.Context, userID uuid.UUID) (UserDetails, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

type cartLister interface {
	ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

type favoriteLister interface {
	ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
}

// OrderCounter counts a user's orders.
type OrderCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// OrderCounterFactory binds the order counter to the delete transaction.
type OrderCounterFactory func(tx *gorm.DB) OrderCounter

// ServiceParams groups profile service dependencies.
type ServiceParams struct {
	DB         txRunner
	Repo       *Repository
	Addresses  addressLister
	Cart       cartLister
	Favorites  favoriteLister
	Orders     OrderCounterFactory
	Outbox     outbox.Emitter
	ResolveURL func(string) string
	Logger     *logger.Logger
}

type service struct {
	db        txRunner
	repo      *Repository
	addresses addressLister
	cart      cartLister
	favorites favoriteLister
	orders    OrderCounterFactory
	outbox    outbox.Emitter
	resolve   func(string) string
	logg      *logger.Logger
}

// NewService builds the profile service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	case params.Repo == nil:
		return nil, fmt.Errorf("profile repository required")
	case params.Addresses == nil, params.Cart == nil, params.Favorites == nil:
		return nil, fmt.Errorf("detail repositories required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order counter required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		addresses: params.Addresses,
		cart:      params.Cart,
		favorites: params.Favorites,
		orders:    params.Orders,
		outbox:    params.Outbox,
		resolve:   params.ResolveURL,
		logg:      params.Logger,
	}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return FromModel(profile), nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateInput) (*ProfileDTO, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").
			WithDetails(map[string]any{"name": "required"})
	}
	found, err := s.repo.UpdateContact(ctx, userID, name, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return s.Me(ctx, userID)
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (ProfilePage, error) {
	rows, next, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return ProfilePage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list profiles")
	}
	items := make([]ProfileDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return ProfilePage{Items: items, NextCursor: next}, nil
}

// ToggleBan inverts the ban flag of a shopper. Admin profiles cannot be banned.
func (s *service) ToggleBan(ctx context.Context, adminID, userID uuid.UUID) (*ProfileDTO, error) {
	var result *models.Profile
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		profile, err := repo.FindByID(ctx, userID)
		if err != nil {
			return mapLoadError(err)
		}
		if profile.IsAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be banned")
		}

		banned := !profile.IsBanned
		updated, err := repo.SetBanned(ctx, userID, banned)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ban flag")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		profile.IsBanned = banned
		result = profile

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProfileBanToggled,
			AggregateType: enums.AggregateProfile,
			AggregateID:   userID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.RoleAdmin)},
			Data:          payloads.ProfileBanToggledEvent{ProfileID: userID, IsBanned: banned},
		})
	})
	if err != nil {
		return nil, asTyped(err, "toggle ban")
	}

	logCtx := s.logg.WithFields(s.logg.WithUserID(ctx, userID.String()), map[string]any{
		"admin_id":  adminID.String(),
		"is_banned": result.IsBanned,
	})
	s.logg.Info(logCtx, "profile ban toggled")
	return FromModel(result), nil
}

// Delete removes a shopper without order history. Orders keep their owner, so profiles with orders stay.
func (s *service) Delete(ctx context.Context, adminID, userID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		profile, err := repo.FindByID(ctx, userID)
		if err != nil {
			return mapLoadError(err)
		}
		if profile.IsAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be deleted")
		}

		orders, err := s.orders(tx).CountByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "profile has orders and cannot be deleted").
				WithDetails(map[string]any{"orders": orders})
		}

		deleted, err := repo.Delete(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete profile")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil
	})
	if err != nil {
		return asTyped(err, "delete profile")
	}
	s.logg.Info(s.logg.WithField(s.logg.WithUserID(ctx, userID.String()), "admin_id", adminID.String()), "profile deleted")
	return nil
}

func (s *service) Details(ctx context.Context, userID uuid.UUID) (UserDetails, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return UserDetails{}, mapLoadError(err)
	}
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return UserDetails{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	lines, err := s.cart.ListWithProducts(ctx, userID)
	if err != nil {
		return UserDetails{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	favs, err := s.favorites.ListWithProducts(ctx, userID)
	if err != nil {
		return UserDetails{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	return UserDetails{
		Profile:   *FromModel(profile),
		Addresses: addresses,
		Cart:      cart.NewLineDTOs(lines, s.resolve),
		Favorites: favorites.NewFavoriteDTOs(favs, s.resolve),
	}, nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "profile not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
}

func asTyped(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
