package controllers

import (
	"net/http"

	"github.com/Abhijit5011/Electromart/api/middleware"
	"github.com/Abhijit5011/Electromart/api/responses"
	"github.com/Abhijit5011/Electromart/api/validators"
	"github.com/Abhijit5011/Electromart/internal/address"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

type createAddressRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Phone       string `json:"phone" validate:"required,max=20"`
	AddressLine string `json:"address_line" validate:"required,max=300"`
	City        string `json:"city" validate:"required,max=80"`
	State       string `json:"state" validate:"required,max=80"`
	Pincode     string `json:"pincode" validate:"required"`
}

func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AddressCreate saves a new address. The first one becomes the default.
func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), userID, address.CreateInput{
			Name:        body.Name,
			Phone:       body.Phone,
			AddressLine: body.AddressLine,
			City:        body.City,
			State:       body.State,
			Pincode:     body.Pincode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func AddressDelete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
