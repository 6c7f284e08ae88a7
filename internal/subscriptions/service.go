package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/internal/billing"
	"github.com/Samyy-Momin/onefooddialer/internal/invoices"
	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledger is the wallet surface the orchestrator needs.
type ledger interface {
	Apply(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error)
}

// invoiceGenerator builds invoices inside the orchestrator's transaction.
type invoiceGenerator interface {
	Generate(ctx context.Context, tx *gorm.DB, input invoices.GenerateInput) (*models.Invoice, error)
}

// CreateInput describes a new subscription request.
type CreateInput struct {
	BusinessID           uuid.UUID
	CustomerID           uuid.UUID
	PlanID               uuid.UUID
	KitchenID            *uuid.UUID
	StartDate            *time.Time
	EndDate              *time.Time
	AutoRenew            *bool
	DeliveryAddress      *string
	DeliveryInstructions *string
	Customizations       types.JSONMap
}

// UpdateInput carries the mutable subscription fields. Nil means unchanged.
type UpdateInput struct {
	BusinessID           uuid.UUID
	SubscriptionID       uuid.UUID
	KitchenID            *uuid.UUID
	Status               *enums.SubscriptionStatus
	EndDate              *time.Time
	AutoRenew            *bool
	DeliveryAddress      *string
	DeliveryInstructions *string
	Customizations       types.JSONMap
}

// ListResult is the paginated subscription collection.
type ListResult struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	Pagination    types.Pagination      `json:"pagination"`
}

// RenewalRun summarizes one billing sweep.
type RenewalRun struct {
	Processed int `json:"processed"`
	Paid      int `json:"paid"`
	Unpaid    int `json:"unpaid"`
}

// Service orchestrates the subscription lifecycle: creation materializes the
// delivery schedule, generates the first invoice and settles it from the
// wallet in a single transaction.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Subscription, error)
	Get(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.Subscription, error)
	Cancel(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error)
	// ProcessRenewals bills every due auto-renewing subscription. Invoices
	// that the wallet cannot cover stay pending; everything else about the
	// cycle still advances.
	ProcessRenewals(ctx context.Context, batchSize int) (*RenewalRun, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	ledger   ledger
	invoices invoiceGenerator
	taxRate  decimal.Decimal
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the subscription orchestrator with its collaborators. The
// tax rate prices the materialized orders the same way invoices are priced.
func NewService(repo Repository, tx txRunner, ledger ledger, invoices invoiceGenerator, taxRate decimal.Decimal, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice generator required")
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		ledger:   ledger,
		invoices: invoices,
		taxRate:  taxRate,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Subscription, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.PlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}
	if input.StartDate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date required")
	}

	var subscriptionID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := repo.FindCustomer(ctx, input.BusinessID, input.CustomerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}

		plan, err := repo.FindActivePlan(ctx, input.BusinessID, input.PlanID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "active plan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
		}

		kitchenID, err := s.resolveKitchen(ctx, repo, input.BusinessID, input.KitchenID)
		if err != nil {
			return err
		}

		startDate := *input.StartDate
		autoRenew := true
		if input.AutoRenew != nil {
			autoRenew = *input.AutoRenew
		}

		subscription := &models.Subscription{
			BusinessID:           input.BusinessID,
			CustomerID:           input.CustomerID,
			PlanID:               plan.ID,
			KitchenID:            kitchenID,
			Status:               enums.SubscriptionStatusActive,
			StartDate:            startDate,
			EndDate:              input.EndDate,
			NextBillingDate:      billing.NextBillingDate(startDate, plan.Type),
			AutoRenew:            autoRenew,
			DeliveryAddress:      input.DeliveryAddress,
			DeliveryInstructions: input.DeliveryInstructions,
			Customizations:       input.Customizations,
		}
		if err := repo.Create(ctx, subscription); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		subscriptionID = subscription.ID

		orders, err := materializeOrders(subscription, plan, customer, startDate, s.taxRate)
		if err != nil {
			return err
		}
		if err := repo.CreateOrders(ctx, orders); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create scheduled orders")
		}

		invoice, err := s.invoices.Generate(ctx, tx, invoices.GenerateInput{
			BusinessID:     input.BusinessID,
			CustomerID:     input.CustomerID,
			SubscriptionID: &subscription.ID,
		})
		if err != nil {
			return err
		}

		// The first cycle is paid up front; an insufficient wallet rolls the
		// whole creation back.
		if err := s.settleFromWallet(ctx, tx, repo, invoice, plan.Name); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.BusinessID, subscriptionID)
}

func (s *service) resolveKitchen(ctx context.Context, repo Repository, businessID uuid.UUID, requested *uuid.UUID) (*uuid.UUID, error) {
	if requested != nil {
		kitchen, err := repo.FindKitchen(ctx, businessID, *requested)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kitchen not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchen")
		}
		return &kitchen.ID, nil
	}

	kitchen, err := repo.FindBusiestKitchen(ctx, businessID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.logg.Warn(ctx, "no active kitchen available for auto-assignment")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "auto-assign kitchen")
	}
	return &kitchen.ID, nil
}

// settleFromWallet debits the invoice total, marks the invoice paid and
// accrues loyalty points. The debit is labelled with the plan name so the
// wallet history reads as a subscription charge.
func (s *service) settleFromWallet(ctx context.Context, tx *gorm.DB, repo Repository, invoice *models.Invoice, planName string) error {
	reference := invoice.InvoiceNumber
	if _, err := s.ledger.Apply(ctx, tx, wallet.EntryInput{
		BusinessID:  invoice.BusinessID,
		CustomerID:  invoice.CustomerID,
		Type:        enums.WalletTransactionTypeDebit,
		Amount:      invoice.TotalAmount,
		Description: fmt.Sprintf("Subscription %s", planName),
		Reference:   &reference,
	}); err != nil {
		return err
	}

	if err := repo.UpdateInvoice(ctx, invoice.ID, map[string]any{
		"status":         enums.InvoiceStatusPaid,
		"paid_at":        s.now(),
		"payment_method": enums.PaymentMethodWallet,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice paid")
	}

	points := int(invoice.TotalAmount.Div(decimal.NewFromInt(100)).IntPart())
	if err := repo.AddCustomerLoyaltyPoints(ctx, invoice.CustomerID, points); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accrue loyalty points")
	}
	return nil
}

func (s *service) Get(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, businessID, subscriptionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return subscription, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid subscription status %q", *filter.Status))
	}
	subscriptions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	return &ListResult{
		Subscriptions: subscriptions,
		Pagination:    filter.Page.Meta(total),
	}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Subscription, error) {
	if input.SubscriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}
	if input.Status != nil {
		switch *input.Status {
		case enums.SubscriptionStatusActive, enums.SubscriptionStatusPaused:
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("status can only be set to %s or %s", enums.SubscriptionStatusActive, enums.SubscriptionStatusPaused))
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		subscription, err := repo.FindByID(ctx, input.BusinessID, input.SubscriptionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if subscription.Status == enums.SubscriptionStatusCancelled || subscription.Status == enums.SubscriptionStatusExpired {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("subscription in status %s cannot be updated", subscription.Status))
		}

		updates := map[string]any{}
		if input.KitchenID != nil {
			kitchenID, err := s.resolveKitchen(ctx, repo, input.BusinessID, input.KitchenID)
			if err != nil {
				return err
			}
			updates["kitchen_id"] = kitchenID
		}
		if input.Status != nil {
			updates["status"] = *input.Status
		}
		if input.EndDate != nil {
			updates["end_date"] = *input.EndDate
		}
		if input.AutoRenew != nil {
			updates["auto_renew"] = *input.AutoRenew
		}
		if input.DeliveryAddress != nil {
			updates["delivery_address"] = *input.DeliveryAddress
		}
		if input.DeliveryInstructions != nil {
			updates["delivery_instructions"] = *input.DeliveryInstructions
		}
		if input.Customizations != nil {
			updates["customizations"] = input.Customizations
		}
		if len(updates) == 0 {
			return nil
		}
		if err := repo.Update(ctx, subscription.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.BusinessID, input.SubscriptionID)
}

func (s *service) Cancel(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		subscription, err := repo.FindByID(ctx, businessID, subscriptionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if subscription.Status == enums.SubscriptionStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "subscription already cancelled")
		}

		now := s.now()
		if err := repo.Update(ctx, subscription.ID, map[string]any{
			"status":     enums.SubscriptionStatusCancelled,
			"end_date":   now,
			"auto_renew": false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
		}

		cancelled, err := repo.CancelPendingOrders(ctx, subscription.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel scheduled orders")
		}
		if cancelled > 0 {
			s.logg.Info(s.logg.WithField(ctx, "cancelled_orders", cancelled), "cancelled future orders with subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, businessID, subscriptionID)
}

func (s *service) ProcessRenewals(ctx context.Context, batchSize int) (*RenewalRun, error) {
	now := s.now()
	due, err := s.repo.FindDueForRenewal(ctx, now, batchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find due subscriptions")
	}

	run := &RenewalRun{}
	var errs error
	for i := range due {
		subscription := &due[i]
		paid, err := s.renewOne(ctx, subscription)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", subscription.ID, err))
			continue
		}
		run.Processed++
		if paid {
			run.Paid++
		}
	}
	run.Unpaid = run.Processed - run.Paid
	return run, errs
}

// renewOne bills one subscription cycle. The invoice is created either way;
// an insufficient wallet leaves it pending instead of failing the cycle.
func (s *service) renewOne(ctx context.Context, subscription *models.Subscription) (bool, error) {
	plan := subscription.Plan
	if plan == nil {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "subscription has no plan")
	}
	customer := subscription.Customer
	if customer == nil {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "subscription has no customer")
	}

	paid := true
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invoice, err := s.invoices.Generate(ctx, tx, invoices.GenerateInput{
			BusinessID:     subscription.BusinessID,
			CustomerID:     subscription.CustomerID,
			SubscriptionID: &subscription.ID,
		})
		if err != nil {
			return err
		}

		if err := s.settleFromWallet(ctx, tx, repo, invoice, plan.Name); err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
				return err
			}
			paid = false
			s.logg.Warn(s.logg.WithCustomerID(ctx, subscription.CustomerID.String()),
				"wallet could not cover renewal invoice, leaving it pending")
		}

		cycleStart := subscription.NextBillingDate
		next := billing.NextBillingDate(cycleStart, plan.Type)
		if err := repo.Update(ctx, subscription.ID, map[string]any{
			"next_billing_date": next,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance next billing date")
		}
		subscription.NextBillingDate = next

		orders, err := materializeOrders(subscription, plan, customer, cycleStart, s.taxRate)
		if err != nil {
			return err
		}
		if err := repo.CreateOrders(ctx, orders); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create scheduled orders")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return paid, nil
}
