package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Abhijit5011/Electromart/api/middleware"
	"github.com/Abhijit5011/Electromart/api/responses"
	"github.com/Abhijit5011/Electromart/api/validators"
	checkoutsvc "github.com/Abhijit5011/Electromart/internal/checkout"
	"github.com/Abhijit5011/Electromart/internal/orders"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

type checkoutRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

// Checkout places an order from the caller's cart. The Idempotency-Key header doubles as
// the order's idempotency key so a retried submission returns the original order.
func Checkout(svc checkoutsvc.Service, resolveURL func(string) string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			UserID:         userID,
			AddressID:      payload.AddressID,
			IdempotencyKey: key,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders.NewOrderDTO(*order, resolveURL))
	}
}
