package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/api/responses"
	"github.com/Samyy-Momin/onefooddialer/api/validators"
	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

type walletTopUpRequest struct {
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod    *string         `json:"paymentMethod"`
	PaymentReference *string         `json:"paymentReference"`
	Description      string          `json:"description"`
}

type walletTransferRequest struct {
	ToCustomerID uuid.UUID       `json:"toCustomerId" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Description  string          `json:"description"`
}

// WalletTopUp credits a customer's wallet. Top-ups at or above the bonus
// floor append a percentage bonus as a second transaction.
func WalletTopUp(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload walletTopUpRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := wallet.TopUpInput{
			BusinessID:       businessID,
			CustomerID:       customerID,
			Amount:           payload.Amount,
			PaymentReference: payload.PaymentReference,
			Description:      strings.TrimSpace(payload.Description),
		}
		if payload.PaymentMethod != nil {
			method, parseErr := enums.ParsePaymentMethod(strings.TrimSpace(*payload.PaymentMethod))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
				return
			}
			input.PaymentMethod = &method
		}

		result, err := svc.AddMoney(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// WalletTransfer moves balance between two customers of the same business.
func WalletTransfer(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fromCustomerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Transfer(r.Context(), wallet.TransferInput{
			BusinessID:     businessID,
			FromCustomerID: fromCustomerID,
			ToCustomerID:   payload.ToCustomerID,
			Amount:         payload.Amount,
			Description:    strings.TrimSpace(payload.Description),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// WalletHistory returns the customer's paginated ledger with credit/debit
// aggregates.
func WalletHistory(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
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

		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := wallet.HistoryFilter{
			BusinessID: businessID,
			CustomerID: customerID,
			Page:       page,
		}
		if filter.FromDate, err = validators.ParseQueryDate(r, "fromDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.ToDate, err = validators.ParseQueryDate(r, "toDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			txType, parseErr := enums.ParseWalletTransactionType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type"))
				return
			}
			filter.Type = &txType
		}

		result, err := svc.History(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
