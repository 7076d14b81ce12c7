package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/storage"
)

var maxRating = decimal.NewFromInt(5)

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, filter ListFilter, cursor string) (ProductPage, error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	Related(ctx context.Context, id uuid.UUID) ([]ProductDTO, error)
	Categories() []string
	AdminList(ctx context.Context, params pagination.Params) (ProductPage, error)
	Create(ctx context.Context, input UpsertInput) (ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (UploadResult, error)
}

type service struct {
	repo    *Repository
	storage storage.Uploader
	logg    *logger.Logger
}

// NewService constructs the product service.
func NewService(repo *Repository, uploader storage.Uploader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("storage uploader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, storage: uploader, logg: logg}, nil
}

// List returns one catalog page. Follow NextCursor with the same filter to reach every match.
func (s *service) List(ctx context.Context, filter ListFilter, cursor string) (ProductPage, error) {
	offset, err := pagination.ParseOffset(cursor)
	if err != nil {
		return ProductPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}
	filter.Offset = offset

	rows, next, err := s.repo.List(ctx, filter)
	if err != nil {
		return ProductPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return ProductPage{Items: s.toDTOs(rows), NextCursor: next}, nil
}

func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return s.toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	return NewProductDTO(*product, s.storage.PublicURL), nil
}

// Related returns up to RelatedLimit products sharing the product's category.
func (s *service) Related(ctx context.Context, id uuid.UUID) ([]ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Related(ctx, product.Category, product.ID, RelatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list related products")
	}
	return s.toDTOs(rows), nil
}

func (s *service) Categories() []string {
	out := make([]string, len(enums.ProductCategories))
	copy(out, enums.ProductCategories)
	return out
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (ProductPage, error) {
	rows, next, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return ProductPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return ProductPage{Items: s.toDTOs(rows), NextCursor: next}, nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (ProductDTO, error) {
	if err := validateUpsert(input); err != nil {
		return ProductDTO{}, err
	}
	product := &models.Product{}
	applyUpsert(product, input)
	if err := s.repo.Create(ctx, product); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	return s.Get(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (ProductDTO, error) {
	if id == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validateUpsert(input); err != nil {
		return ProductDTO{}, err
	}
	product := &models.Product{ID: id}
	applyUpsert(product, input)
	found, err := s.repo.Update(ctx, product)
	if err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if !found {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.Get(ctx, id)
}

// Delete removes the product. Past orders keep their frozen summaries.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product deleted")
	return nil
}

// UploadImage stores an image under the products prefix and returns its path and public URL.
func (s *service) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (UploadResult, error) {
	path, err := s.storage.Upload(ctx, filename, contentType, r)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return UploadResult{}, err
		}
		return UploadResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return UploadResult{Path: path, URL: s.storage.PublicURL(path)}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewProductDTO(row, s.storage.PublicURL))
	}
	return out
}

func validateUpsert(input UpsertInput) error {
	problems := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		problems["name"] = "name is required"
	}
	if strings.TrimSpace(input.Category) == "" {
		problems["category"] = "category is required"
	}
	if !input.Price.IsPositive() {
		problems["price"] = "price must be greater than zero"
	}
	if input.DiscountPrice != nil {
		if input.DiscountPrice.IsNegative() {
			problems["discount_price"] = "discount price cannot be negative"
		} else if input.DiscountPrice.GreaterThan(input.Price) {
			problems["discount_price"] = "discount price cannot exceed price"
		}
	}
	if len(cleanImages(input.Images)) == 0 {
		problems["images"] = "at least one image is required"
	}
	if input.StockQuantity < 0 {
		problems["stock_quantity"] = "stock quantity cannot be negative"
	}
	if input.DeliveryCharge.IsNegative() {
		problems["delivery_charge"] = "delivery charge cannot be negative"
	}
	if input.DeliveryDays < 0 {
		problems["delivery_days"] = "delivery days cannot be negative"
	}
	if input.Rating.IsNegative() || input.Rating.GreaterThan(maxRating) {
		problems["rating"] = "rating must be between 0 and 5"
	}
	for i, spec := range input.Specs {
		if strings.TrimSpace(spec.Key) == "" {
			problems[fmt.Sprintf("specs[%d]", i)] = "spec key is required"
		}
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(problems)
	}
	return nil
}

func applyUpsert(p *models.Product, input UpsertInput) {
	p.Name = strings.TrimSpace(input.Name)
	p.Description = strings.TrimSpace(input.Description)
	p.Price = input.Price
	p.DiscountPrice = decimal.NullDecimal{}
	if input.DiscountPrice != nil && input.DiscountPrice.IsPositive() {
		p.DiscountPrice = decimal.NewNullDecimal(*input.DiscountPrice)
	}
	p.Category = strings.TrimSpace(input.Category)
	p.Specs = input.Specs
	p.Images = cleanImages(input.Images)
	p.Rating = input.Rating
	p.StockQuantity = input.StockQuantity
	p.DeliveryCharge = input.DeliveryCharge
	p.DeliveryDays = input.DeliveryDays
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
