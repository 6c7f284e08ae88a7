package middleware

import (
	"net/http"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

// BusinessContext rejects requests whose token carries no tenant scope.
func BusinessContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if BusinessIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
