package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/api/validators"
	"github.com/Samyy-Momin/onefooddialer/internal/orders"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

type orderItemRequest struct {
	MenuItemID uuid.UUID `json:"menuItemId" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
}

type orderCreateRequest struct {
	CustomerID           uuid.UUID          `json:"customerId" validate:"required"`
	KitchenID            *uuid.UUID         `json:"kitchenId"`
	Type                 string             `json:"type"`
	ScheduledFor         *time.Time         `json:"scheduledFor"`
	Items                []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress      *string            `json:"deliveryAddress"`
	DeliveryInstructions *string            `json:"deliveryInstructions"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderCreate places a direct one-time or bulk order. Subscription orders are
// materialized by the orchestrator, not through this endpoint.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType := enums.OrderTypeOneTime
		if raw := strings.TrimSpace(payload.Type); raw != "" {
			parsed, parseErr := enums.ParseOrderType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type"))
				return
			}
			orderType = parsed
		}

		items := make([]orders.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, orders.ItemInput{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
		}

		created, err := svc.Create(r.Context(), orders.CreateInput{
			BusinessID:           businessID,
			CustomerID:           payload.CustomerID,
			KitchenID:            payload.KitchenID,
			Type:                 orderType,
			ScheduledFor:         payload.ScheduledFor,
			Items:                items,
			DeliveryAddress:      payload.DeliveryAddress,
			DeliveryInstructions: payload.DeliveryInstructions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		filter := orders.ListFilter{BusinessID: businessID, Page: page}
		if filter.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.KitchenID, err = validators.ParseQueryUUID(r, "kitchenId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.SubscriptionID, err = validators.ParseQueryUUID(r, "subscriptionId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.FromDate, err = validators.ParseQueryDate(r, "fromDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.ToDate, err = validators.ParseQueryDate(r, "toDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
				return
			}
			filter.Status = &status
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, result.Orders, result.Pagination)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), businessID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderUpdateStatus moves the order along the delivery pipeline, with the
// settlement and compensation side effects of each transition.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), orders.StatusInput{
			BusinessID: businessID,
			OrderID:    orderID,
			Status:     status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// OrderCancel is the DELETE shortcut for a CANCELLED transition.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := svc.UpdateStatus(r.Context(), orders.StatusInput{
			BusinessID: businessID,
			OrderID:    orderID,
			Status:     enums.OrderStatusCancelled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cancelled)
	}
}
