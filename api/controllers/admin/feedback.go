package admin

import (
	"net/http"

	"github.com/Abhijit5011/Electromart/api/responses"
	"github.com/Abhijit5011/Electromart/api/validators"
	"github.com/Abhijit5011/Electromart/internal/feedback"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

type feedbackStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// FeedbackList pages tickets, optionally filtered by ?status=, ?type= and a ?q= search.
func FeedbackList(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()
		page, err := svc.AdminList(r.Context(), feedback.AdminFilter{
			Status: query.Get("status"),
			Type:   query.Get("type"),
		}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func FeedbackUpdateStatus(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "feedbackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload feedbackStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateStatus(r.Context(), id, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
