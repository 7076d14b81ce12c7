package admin

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Abhijit5011/Electromart/api/responses"
	"github.com/Abhijit5011/Electromart/api/validators"
	product "github.com/Abhijit5011/Electromart/internal/products"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

const uploadField = "file"

type upsertProductRequest struct {
	Name           string             `json:"name" validate:"required,max=200"`
	Description    string             `json:"description"`
	Price          decimal.Decimal    `json:"price"`
	DiscountPrice  *decimal.Decimal   `json:"discount_price,omitempty"`
	Category       string             `json:"category" validate:"required,max=80"`
	Specs          types.ProductSpecs `json:"specs"`
	Images         []string           `json:"images" validate:"required,min=1,dive,required"`
	Rating         decimal.Decimal    `json:"rating"`
	StockQuantity  int                `json:"stock_quantity" validate:"min=0"`
	DeliveryCharge decimal.Decimal    `json:"delivery_charge"`
	DeliveryDays   int                `json:"delivery_days" validate:"min=0"`
}

func (r upsertProductRequest) toInput() product.UpsertInput {
	return product.UpsertInput{
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		DiscountPrice:  r.DiscountPrice,
		Category:       r.Category,
		Specs:          r.Specs,
		Images:         r.Images,
		Rating:         r.Rating,
		StockQuantity:  r.StockQuantity,
		DeliveryCharge: r.DeliveryCharge,
		DeliveryDays:   r.DeliveryDays,
	}
}

func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.AdminList(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var payload upsertProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ProductUpdate replaces every editable field of a product.
func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload upsertProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProductImageUpload accepts one multipart image under the "file" field and stores it in the
// products bucket. maxBytes bounds the whole request body.
func ProductImageUpload(svc product.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		if maxBytes > 0 {
			// multipart framing needs a little headroom over the file itself
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile(uploadField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required").WithDetails(map[string]any{"field": uploadField}))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
		}
		if !strings.HasPrefix(contentType, "image/") {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "only image uploads are allowed").WithDetails(map[string]any{"content_type": contentType}))
			return
		}

		result, err := svc.UploadImage(r.Context(), header.Filename, contentType, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
