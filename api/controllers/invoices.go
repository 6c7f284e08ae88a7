package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/api/validators"
	"github.com/Samyy-Momin/onefooddialer/internal/invoices"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

type invoiceItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"required"`
}

type invoiceCreateRequest struct {
	CustomerID     uuid.UUID            `json:"customerId" validate:"required"`
	SubscriptionID *uuid.UUID           `json:"subscriptionId"`
	OrderID        *uuid.UUID           `json:"orderId"`
	Items          []invoiceItemRequest `json:"items" validate:"omitempty,dive"`
	TaxRate        *decimal.Decimal     `json:"taxRate"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
	DueDate        *time.Time           `json:"dueDate"`
	BillingAddress *string              `json:"billingAddress"`
}

type invoicePayRequest struct {
	PaymentMethod    string  `json:"paymentMethod" validate:"required"`
	PaymentReference *string `json:"paymentReference"`
}

// InvoiceCreate builds an invoice from exactly one billing source:
// subscription, order or manual line items.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]invoices.ManualItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, invoices.ManualItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}

		created, err := svc.Create(r.Context(), invoices.GenerateInput{
			BusinessID:     businessID,
			CustomerID:     payload.CustomerID,
			SubscriptionID: payload.SubscriptionID,
			OrderID:        payload.OrderID,
			Items:          items,
			TaxRate:        payload.TaxRate,
			DiscountAmount: payload.DiscountAmount,
			DueDate:        payload.DueDate,
			BillingAddress: payload.BillingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
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

		filter := invoices.ListFilter{BusinessID: businessID, Page: page}
		if filter.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseInvoiceStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice status"))
				return
			}
			filter.Status = &status
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, result.Invoices, result.Pagination)
	}
}

func InvoiceDetail(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), businessID, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, invoice)
	}
}

// InvoicePay settles a payable invoice. WALLET payments debit the ledger and
// accrue loyalty points.
func InvoicePay(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoicePayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		paid, err := svc.Pay(r.Context(), invoices.PayInput{
			BusinessID:       businessID,
			InvoiceID:        invoiceID,
			PaymentMethod:    method,
			PaymentReference: payload.PaymentReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paid)
	}
}
