package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/api/validators"
	"github.com/Samyy-Momin/onefooddialer/internal/plans"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

type planItemRequest struct {
	MenuItemID uuid.UUID `json:"menuItemId" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
	IsOptional bool      `json:"isOptional"`
}

type planCreateRequest struct {
	Name         string            `json:"name" validate:"required"`
	Description  *string           `json:"description"`
	Type         string            `json:"type" validate:"required"`
	Price        decimal.Decimal   `json:"price" validate:"required"`
	DurationDays int               `json:"durationDays"`
	Items        []planItemRequest `json:"items" validate:"required,min=1,dive"`
}

type planUpdateRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Price       *decimal.Decimal  `json:"price"`
	IsActive    *bool             `json:"isActive"`
	Items       []planItemRequest `json:"items" validate:"omitempty,min=1,dive"`
}

func planItemInputs(items []planItemRequest) []plans.ItemInput {
	inputs := make([]plans.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, plans.ItemInput{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			IsOptional: item.IsOptional,
		})
	}
	return inputs
}

func PlanCreate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload planCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		planType, err := enums.ParsePlanType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan type"))
			return
		}

		created, err := svc.Create(r.Context(), plans.CreateInput{
			BusinessID:   businessID,
			Name:         strings.TrimSpace(payload.Name),
			Description:  payload.Description,
			Type:         planType,
			Price:        payload.Price,
			DurationDays: payload.DurationDays,
			Items:        planItemInputs(payload.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func PlanList(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
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

		filter := plans.ListFilter{BusinessID: businessID, Page: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			planType, parseErr := enums.ParsePlanType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan type"))
				return
			}
			filter.Type = &planType
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

		responses.WriteList(w, result.Plans, result.Pagination)
	}
}

func PlanDetail(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		planID, err := pathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.Get(r.Context(), businessID, planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, plan)
	}
}

func PlanUpdate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		planID, err := pathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload planUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := plans.UpdateInput{
			BusinessID:  businessID,
			PlanID:      planID,
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			IsActive:    payload.IsActive,
		}
		if payload.Items != nil {
			input.Items = planItemInputs(payload.Items)
		}

		updated, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// PlanDeactivate stops new signups; running subscriptions are untouched.
func PlanDeactivate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		planID, err := pathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.Deactivate(r.Context(), businessID, planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, plan)
	}
}
