package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/api/validators"
	"github.com/Samyy-Momin/onefooddialer/internal/subscriptions"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type subscriptionCreateRequest struct {
	CustomerID           uuid.UUID     `json:"customerId" validate:"required"`
	PlanID               uuid.UUID     `json:"planId" validate:"required"`
	KitchenID            *uuid.UUID    `json:"kitchenId"`
	StartDate            *time.Time    `json:"startDate" validate:"required"`
	EndDate              *time.Time    `json:"endDate"`
	AutoRenew            *bool         `json:"autoRenew"`
	DeliveryAddress      *string       `json:"deliveryAddress"`
	DeliveryInstructions *string       `json:"deliveryInstructions"`
	Customizations       types.JSONMap `json:"customizations"`
}

type subscriptionUpdateRequest struct {
	KitchenID            *uuid.UUID    `json:"kitchenId"`
	Status               *string       `json:"status"`
	EndDate              *time.Time    `json:"endDate"`
	AutoRenew            *bool         `json:"autoRenew"`
	DeliveryAddress      *string       `json:"deliveryAddress"`
	DeliveryInstructions *string       `json:"deliveryInstructions"`
	Customizations       types.JSONMap `json:"customizations"`
}

// SubscriptionCreate runs the full orchestration: schedule materialization,
// first invoice and wallet settlement in one transaction.
func SubscriptionCreate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), subscriptions.CreateInput{
			BusinessID:           businessID,
			CustomerID:           payload.CustomerID,
			PlanID:               payload.PlanID,
			KitchenID:            payload.KitchenID,
			StartDate:            payload.StartDate,
			EndDate:              payload.EndDate,
			AutoRenew:            payload.AutoRenew,
			DeliveryAddress:      payload.DeliveryAddress,
			DeliveryInstructions: payload.DeliveryInstructions,
			Customizations:       payload.Customizations,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func SubscriptionList(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
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

		filter := subscriptions.ListFilter{BusinessID: businessID, Page: page}
		if filter.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseSubscriptionStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription status"))
				return
			}
			filter.Status = &status
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, result.Subscriptions, result.Pagination)
	}
}

func SubscriptionDetail(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := pathUUID(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscription, err := svc.Get(r.Context(), businessID, subscriptionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, subscription)
	}
}

func SubscriptionUpdate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := pathUUID(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := subscriptions.UpdateInput{
			BusinessID:           businessID,
			SubscriptionID:       subscriptionID,
			KitchenID:            payload.KitchenID,
			EndDate:              payload.EndDate,
			AutoRenew:            payload.AutoRenew,
			DeliveryAddress:      payload.DeliveryAddress,
			DeliveryInstructions: payload.DeliveryInstructions,
			Customizations:       payload.Customizations,
		}
		if payload.Status != nil {
			status, parseErr := enums.ParseSubscriptionStatus(strings.TrimSpace(*payload.Status))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription status"))
				return
			}
			input.Status = &status
		}

		updated, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// SubscriptionCancel soft-cancels the subscription and voids its pending
// future orders.
func SubscriptionCancel(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := pathUUID(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := svc.Cancel(r.Context(), businessID, subscriptionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cancelled)
	}
}
