package controllers

import (
	"net/http"

	"github.com/siamtube/pricing-backend/api/responses"
	"github.com/siamtube/pricing-backend/internal/customers"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

// ListCustomerGroups handles GET /api/v1/customer-groups.
func ListCustomerGroups(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.ListGroups(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"groups": groups})
	}
}
