package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/internal/billing"
	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/codes"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledger is the wallet surface invoice payment needs.
type ledger interface {
	Apply(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error)
}

// ManualItem is one caller-supplied invoice line.
type ManualItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// GenerateInput describes the invoice to create. Exactly one of
// SubscriptionID, OrderID or Items determines the subtotal.
type GenerateInput struct {
	BusinessID     uuid.UUID
	CustomerID     uuid.UUID
	SubscriptionID *uuid.UUID
	OrderID        *uuid.UUID
	Items          []ManualItem
	TaxRate        *decimal.Decimal
	DiscountAmount decimal.Decimal
	DueDate        *time.Time
	BillingAddress *string
}

// PayInput settles an invoice.
type PayInput struct {
	BusinessID       uuid.UUID
	InvoiceID        uuid.UUID
	PaymentMethod    enums.PaymentMethod
	PaymentReference *string
}

// ListResult is the paginated invoice collection.
type ListResult struct {
	Invoices   []models.Invoice `json:"invoices"`
	Pagination types.Pagination `json:"pagination"`
}

// Service creates and settles invoices.
type Service interface {
	// Generate builds and persists an invoice inside the caller's transaction.
	Generate(ctx context.Context, tx *gorm.DB, input GenerateInput) (*models.Invoice, error)
	Create(ctx context.Context, input GenerateInput) (*models.Invoice, error)
	Pay(ctx context.Context, input PayInput) (*models.Invoice, error)
	Get(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}

type service struct {
	repo           Repository
	tx             txRunner
	ledger         ledger
	defaultTaxRate decimal.Decimal
	dueDays        int
	now            func() time.Time
}

// NewService wires the invoice generator with its collaborators.
func NewService(repo Repository, tx txRunner, ledger ledger, defaultTaxRate decimal.Decimal, dueDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if dueDays <= 0 {
		dueDays = 7
	}
	return &service{
		repo:           repo,
		tx:             tx,
		ledger:         ledger,
		defaultTaxRate: defaultTaxRate,
		dueDays:        dueDays,
		now:            time.Now,
	}, nil
}

func (s *service) Generate(ctx context.Context, tx *gorm.DB, input GenerateInput) (*models.Invoice, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	sources := 0
	if input.SubscriptionID != nil {
		sources++
	}
	if input.OrderID != nil {
		sources++
	}
	if len(input.Items) > 0 {
		sources++
	}
	if sources == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"invoice must be linked to a subscription, an order, or manual items")
	}
	if sources > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"invoice must have exactly one billing source")
	}

	now := s.now()
	dueDate := now.AddDate(0, 0, s.dueDays)
	if input.DueDate != nil {
		if input.DueDate.Before(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date must not be in the past")
		}
		dueDate = *input.DueDate
	}

	taxRate := s.defaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	discount := input.DiscountAmount

	repo := s.repo.WithTx(tx)

	customer, err := repo.FindCustomer(ctx, input.BusinessID, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	invoice := &models.Invoice{
		BusinessID:     input.BusinessID,
		CustomerID:     input.CustomerID,
		SubscriptionID: input.SubscriptionID,
		OrderID:        input.OrderID,
		InvoiceNumber:  codes.InvoiceNumber(),
		Status:         enums.InvoiceStatusPending,
		DueDate:        dueDate,
		BillingAddress: input.BillingAddress,
	}
	if invoice.BillingAddress == nil {
		invoice.BillingAddress = customer.Address
	}

	var totals billing.Totals
	switch {
	case input.SubscriptionID != nil:
		subscription, err := repo.FindSubscription(ctx, input.BusinessID, *input.SubscriptionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if subscription.Plan == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription has no plan")
		}
		totals, err = billing.TotalsFromSubtotal(subscription.Plan.Price, taxRate, discount)
		if err != nil {
			return nil, err
		}

	case input.OrderID != nil:
		order, err := repo.FindOrder(ctx, input.BusinessID, *input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != input.CustomerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not belong to customer")
		}
		totals, err = billing.TotalsFromSubtotal(order.TotalAmount, taxRate, discount)
		if err != nil {
			return nil, err
		}

	default:
		lineItems := make([]billing.LineItem, 0, len(input.Items))
		for i, item := range input.Items {
			if item.Description == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("item %d: description required", i))
			}
			if item.Quantity <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("item %d: quantity must be positive", i))
			}
			if item.UnitPrice.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("item %d: unit price must not be negative", i))
			}
			lineItems = append(lineItems, billing.LineItem{Quantity: item.Quantity, UnitPrice: item.UnitPrice})

			invoice.Items = append(invoice.Items, models.InvoiceItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}
		totals, err = billing.ComputeTotals(lineItems, taxRate, discount)
		if err != nil {
			return nil, err
		}
	}

	invoice.SubtotalAmount = totals.Subtotal.Round(2)
	invoice.TaxAmount = totals.TaxAmount.Round(2)
	invoice.DiscountAmount = totals.DiscountAmount.Round(2)
	invoice.TotalAmount = totals.Total.Round(2)

	if err := repo.Create(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}
	return invoice, nil
}

func (s *service) Create(ctx context.Context, input GenerateInput) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.Generate(ctx, tx, input)
		if err != nil {
			return err
		}
		invoice = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) Pay(ctx context.Context, input PayInput) (*models.Invoice, error) {
	if input.InvoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	var paid *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invoice, err := repo.FindByID(ctx, input.BusinessID, input.InvoiceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}
		if !invoice.Status.IsPayable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("invoice in status %s cannot be paid", invoice.Status))
		}

		if input.PaymentMethod == enums.PaymentMethodWallet {
			reference := invoice.InvoiceNumber
			if input.PaymentReference != nil {
				reference = *input.PaymentReference
			}
			if _, err := s.ledger.Apply(ctx, tx, wallet.EntryInput{
				BusinessID:  invoice.BusinessID,
				CustomerID:  invoice.CustomerID,
				Type:        enums.WalletTransactionTypeDebit,
				Amount:      invoice.TotalAmount,
				Description: fmt.Sprintf("Payment for invoice %s", invoice.InvoiceNumber),
				Reference:   &reference,
			}); err != nil {
				return err
			}
		}

		now := s.now()
		method := input.PaymentMethod
		if err := repo.Update(ctx, invoice.ID, map[string]any{
			"status":         enums.InvoiceStatusPaid,
			"paid_at":        now,
			"payment_method": method,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice paid")
		}

		// One loyalty point per 100 currency units paid.
		points := int(invoice.TotalAmount.Div(decimal.NewFromInt(100)).IntPart())
		if err := repo.AddCustomerLoyaltyPoints(ctx, invoice.CustomerID, points); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accrue loyalty points")
		}

		if invoice.SubscriptionID != nil {
			subscription, err := repo.FindSubscription(ctx, invoice.BusinessID, *invoice.SubscriptionID)
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
				}
			} else if subscription.Plan != nil {
				next := billing.NextBillingDate(subscription.NextBillingDate, subscription.Plan.Type)
				if err := repo.UpdateSubscriptionNextBilling(ctx, subscription.ID, next); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance next billing date")
				}
			}
		}

		invoice.Status = enums.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.PaymentMethod = &method
		paid = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

func (s *service) Get(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, businessID, invoiceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return &ListResult{
		Invoices:   invoices,
		Pagination: filter.Page.Meta(total),
	}, nil
}
