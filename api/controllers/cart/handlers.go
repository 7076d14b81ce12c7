package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Abhijit5011/Electromart/api/middleware"
	"github.com/Abhijit5011/Electromart/api/responses"
	"github.com/Abhijit5011/Electromart/api/validators"
	cartsvc "github.com/Abhijit5011/Electromart/internal/cart"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// Quantity is a pointer so an explicit 0 passes "required" and reaches the floor in the service.
type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartFetch returns the caller's cart lines and totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := svc.ListCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddItem puts a product in the cart with quantity 1. Adding an existing product resets its line to 1.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddToCart(r.Context(), userID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// CartUpdateQuantity sets a line's quantity. Values below 1 are stored as 1.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, lineID, err := lineParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateQuantity(r.Context(), userID, lineID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(svc, logg, func(s cartsvc.Service) stepFunc { return s.IncrementQuantity })
}

// CartDecrement lowers a line's quantity. It never drops below 1.
func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(svc, logg, func(s cartsvc.Service) stepFunc { return s.DecrementQuantity })
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, lineID, err := lineParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveLine(r.Context(), userID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CartCount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.Count(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartsvc.CountEvent{Count: count})
	}
}

type stepFunc func(ctx context.Context, userID, lineID uuid.UUID) (cartsvc.LineDTO, error)

func stepHandler(svc cartsvc.Service, logg *logger.Logger, pick func(cartsvc.Service) stepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, lineID, err := lineParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := pick(svc)(r.Context(), userID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

func lineParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.RequireUserID(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	lineID, err := validators.ParseUUIDParam(r, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, lineID, nil
}
