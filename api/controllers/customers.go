package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/api/validators"
	"github.com/Samyy-Momin/onefooddialer/internal/customers"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type customerCreateRequest struct {
	Name           string          `json:"name" validate:"required"`
	Email          *string         `json:"email" validate:"omitempty,email"`
	Phone          *string         `json:"phone"`
	Address        *string         `json:"address"`
	Preferences    types.JSONMap   `json:"preferences"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type customerUpdateRequest struct {
	Name        *string       `json:"name"`
	Email       *string       `json:"email" validate:"omitempty,email"`
	Phone       *string       `json:"phone"`
	Address     *string       `json:"address"`
	Preferences types.JSONMap `json:"preferences"`
	IsActive    *bool         `json:"isActive"`
}

// CustomerCreate registers a customer, generating the customer code and
// crediting any opening wallet balance through the ledger.
func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), customers.CreateInput{
			BusinessID:     businessID,
			Name:           strings.TrimSpace(payload.Name),
			Email:          payload.Email,
			Phone:          payload.Phone,
			Address:        payload.Address,
			Preferences:    payload.Preferences,
			InitialBalance: payload.InitialBalance,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := customers.ListFilter{
			BusinessID: businessID,
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			Page:       page,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("isActive")); raw != "" {
			active := raw == "true"
			filter.IsActive = &active
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, result.Customers, result.Pagination)
	}
}

func CustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Get(r.Context(), businessID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), customers.UpdateInput{
			BusinessID:  businessID,
			CustomerID:  customerID,
			Name:        payload.Name,
			Email:       payload.Email,
			Phone:       payload.Phone,
			Address:     payload.Address,
			Preferences: payload.Preferences,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// CustomerDeactivate soft-disables a customer; active subscriptions block it.
func CustomerDeactivate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Deactivate(r.Context(), businessID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}
