package address

import (
	"context"
	stdErrors "errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/errors"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

// CreateInput is a new delivery address.
type CreateInput struct {
	Name        string
	Phone       string
	AddressLine string
	City        string
	State       string
	Pincode     string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	db   txRunner
}

func NewService(repo *Repository, db txRunner) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeValidation, "address repository is required")
	}
	if db == nil {
		return nil, errors.New(errors.CodeValidation, "db client is required")
	}
	return &service{repo: repo, db: db}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	row, err := s.repo.FindOwned(ctx, userID, addressID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, err, "address not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "load address")
	}
	return row, nil
}

// Create saves the address. The first address a profile saves becomes its default.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeUnauthorized, "authentication required")
	}
	addr, err := normalize(input)
	if err != nil {
		return nil, err
	}
	addr.UserID = userID

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountByUser(ctx, userID)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "count addresses")
		}
		addr.IsDefault = count == 0
		if err := txRepo.Create(ctx, addr); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "insert address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// Delete removes an owned address. The default flag is not reassigned.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	found, err := s.repo.DeleteOwned(ctx, userID, addressID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "delete address")
	}
	if !found {
		return errors.New(errors.CodeNotFound, "address not found")
	}
	return nil
}

func normalize(input CreateInput) (*models.Address, error) {
	addr := &models.Address{
		Name:        strings.TrimSpace(input.Name),
		Phone:       strings.TrimSpace(input.Phone),
		AddressLine: strings.TrimSpace(input.AddressLine),
		City:        strings.TrimSpace(input.City),
		State:       strings.TrimSpace(input.State),
		Pincode:     strings.TrimSpace(input.Pincode),
	}
	problems := map[string]string{}
	for field, value := range map[string]string{
		"name":         addr.Name,
		"phone":        addr.Phone,
		"address_line": addr.AddressLine,
		"city":         addr.City,
		"state":        addr.State,
	} {
		if value == "" {
			problems[field] = field + " is required"
		}
	}
	if !pincodePattern.MatchString(addr.Pincode) {
		problems["pincode"] = "pincode must be 6 digits"
	}
	if len(problems) > 0 {
		return nil, errors.New(errors.CodeValidation, "invalid address").WithDetails(problems)
	}
	return addr, nil
}
