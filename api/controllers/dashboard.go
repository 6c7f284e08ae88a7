package controllers

import (
	"net/http"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/internal/dashboard"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

// DashboardStats aggregates live counts and sums for the tenant: customers,
// subscriptions by status, today's orders, monthly revenue, open invoices and
// the outstanding wallet liability.
func DashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
