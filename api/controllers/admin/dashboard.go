package admin

import (
	"net/http"

	"github.com/Abhijit5011/Electromart/api/responses"
	"github.com/Abhijit5011/Electromart/internal/dashboard"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

// Dashboard returns the aggregated store statistics.
func Dashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
