package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLedger struct {
	entries []wallet.EntryInput
	err     error
}

func (f *fakeLedger) Apply(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, input)
	return &models.WalletTransaction{
		CustomerID: input.CustomerID,
		Type:       input.Type,
		Amount:     input.Amount,
	}, nil
}

type fakeRepository struct {
	customers     map[uuid.UUID]*models.Customer
	subscriptions map[uuid.UUID]*models.Subscription
	orders        map[uuid.UUID]*models.Order
	invoices      map[uuid.UUID]*models.Invoice
	loyalty       map[uuid.UUID]int
	nextBilling   map[uuid.UUID]time.Time
	updates       map[uuid.UUID]map[string]any
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		customers:     map[uuid.UUID]*models.Customer{},
		subscriptions: map[uuid.UUID]*models.Subscription{},
		orders:        map[uuid.UUID]*models.Order{},
		invoices:      map[uuid.UUID]*models.Invoice{},
		loyalty:       map[uuid.UUID]int{},
		nextBilling:   map[uuid.UUID]time.Time{},
		updates:       map[uuid.UUID]map[string]any{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	invoice.ID = uuid.New()
	f.invoices[invoice.ID] = invoice
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, ok := f.invoices[invoiceID]
	if !ok || invoice.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	return &copied, nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.Invoice, int64, error) {
	var out []models.Invoice
	for _, invoice := range f.invoices {
		if invoice.BusinessID == filter.BusinessID {
			out = append(out, *invoice)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) Update(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error {
	f.updates[invoiceID] = updates
	if invoice, ok := f.invoices[invoiceID]; ok {
		if status, ok := updates["status"].(enums.InvoiceStatus); ok {
			invoice.Status = status
		}
	}
	return nil
}

func (f *fakeRepository) FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok || customer.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

func (f *fakeRepository) FindSubscription(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, ok := f.subscriptions[subscriptionID]
	if !ok || subscription.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return subscription, nil
}

func (f *fakeRepository) FindOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeRepository) AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error {
	f.loyalty[customerID] += points
	return nil
}

func (f *fakeRepository) UpdateSubscriptionNextBilling(ctx context.Context, subscriptionID uuid.UUID, next time.Time) error {
	f.nextBilling[subscriptionID] = next
	return nil
}

func (f *fakeRepository) MarkOverdue(ctx context.Context, businessID *uuid.UUID, now time.Time) (int64, error) {
	return 0, nil
}

func seedCustomer(repo *fakeRepository, businessID uuid.UUID) uuid.UUID {
	id := uuid.New()
	address := "12 Curry Lane"
	repo.customers[id] = &models.Customer{ID: id, BusinessID: businessID, Address: &address}
	return id
}

func newTestService(t *testing.T, repo Repository, ledger ledger) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, ledger, dec("0.18"), 7)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestGenerateRequiresExactlyOneSource(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)
	svc := newTestService(t, repo, &fakeLedger{})

	subscriptionID := uuid.New()
	orderID := uuid.New()

	tests := []struct {
		name  string
		input GenerateInput
	}{
		{
			name:  "no source",
			input: GenerateInput{BusinessID: businessID, CustomerID: customerID},
		},
		{
			name: "two sources",
			input: GenerateInput{
				BusinessID:     businessID,
				CustomerID:     customerID,
				SubscriptionID: &subscriptionID,
				OrderID:        &orderID,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), nil, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestGenerateManualItemValidation(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)
	svc := newTestService(t, repo, &fakeLedger{})

	_, err := svc.Generate(context.Background(), nil, GenerateInput{
		BusinessID: businessID,
		CustomerID: customerID,
		Items: []ManualItem{
			{Description: "Lunch box", Quantity: 2, UnitPrice: dec("150")},
			{Description: "", Quantity: 1, UnitPrice: dec("50")},
		},
	})
	if err == nil {
		t.Fatal("expected per-item validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if typed.Message() != "item 1: description required" {
		t.Fatalf("error should identify the offending index, got %q", typed.Message())
	}
}

func TestGenerateManualItemsTotals(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)
	svc := newTestService(t, repo, &fakeLedger{})

	invoice, err := svc.Generate(context.Background(), nil, GenerateInput{
		BusinessID: businessID,
		CustomerID: customerID,
		Items: []ManualItem{
			{Description: "Thali", Quantity: 1, UnitPrice: dec("299.99")},
			{Description: "Lassi", Quantity: 2, UnitPrice: dec("50.00")},
		},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if !invoice.SubtotalAmount.Equal(dec("399.99")) {
		t.Fatalf("subtotal = %s, want 399.99", invoice.SubtotalAmount)
	}
	if !invoice.TaxAmount.Equal(dec("72.00")) {
		t.Fatalf("tax = %s, want 72.00", invoice.TaxAmount)
	}
	if len(invoice.Items) != 2 {
		t.Fatalf("expected 2 invoice items, got %d", len(invoice.Items))
	}
	if invoice.InvoiceNumber == "" || invoice.InvoiceNumber[:3] != "INV" {
		t.Fatalf("invoice number %q does not match INV pattern", invoice.InvoiceNumber)
	}
	if invoice.BillingAddress == nil || *invoice.BillingAddress != "12 Curry Lane" {
		t.Fatal("billing address should default to customer profile address")
	}
}

func TestGenerateSubscriptionSource(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)

	subscriptionID := uuid.New()
	repo.subscriptions[subscriptionID] = &models.Subscription{
		ID:         subscriptionID,
		BusinessID: businessID,
		CustomerID: customerID,
		Plan: &models.SubscriptionPlan{
			Name:  "Monthly Veg Thali",
			Type:  enums.PlanTypeMonthly,
			Price: dec("299.99"),
		},
	}
	svc := newTestService(t, repo, &fakeLedger{})

	invoice, err := svc.Generate(context.Background(), nil, GenerateInput{
		BusinessID:     businessID,
		CustomerID:     customerID,
		SubscriptionID: &subscriptionID,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !invoice.TotalAmount.Equal(dec("353.99")) {
		t.Fatalf("total = %s, want 353.99", invoice.TotalAmount)
	}
	if invoice.SubscriptionID == nil || *invoice.SubscriptionID != subscriptionID {
		t.Fatal("invoice should link to subscription")
	}
}

func TestGeneratePastDueDateRejected(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)
	svc := newTestService(t, repo, &fakeLedger{})

	past := time.Now().AddDate(0, 0, -1)
	_, err := svc.Generate(context.Background(), nil, GenerateInput{
		BusinessID: businessID,
		CustomerID: customerID,
		DueDate:    &past,
		Items:      []ManualItem{{Description: "Meal", Quantity: 1, UnitPrice: dec("100")}},
	})
	if err == nil {
		t.Fatal("expected past due date rejection")
	}
}

func TestPayWithWallet(t *testing.T) {
	repo := newFakeRepository()
	ledgerFake := &fakeLedger{}
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)

	subscriptionID := uuid.New()
	nextBilling := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	repo.subscriptions[subscriptionID] = &models.Subscription{
		ID:              subscriptionID,
		BusinessID:      businessID,
		CustomerID:      customerID,
		NextBillingDate: nextBilling,
		Plan:            &models.SubscriptionPlan{Type: enums.PlanTypeMonthly, Price: dec("299.99")},
	}

	invoiceID := uuid.New()
	repo.invoices[invoiceID] = &models.Invoice{
		ID:             invoiceID,
		BusinessID:     businessID,
		CustomerID:     customerID,
		SubscriptionID: &subscriptionID,
		InvoiceNumber:  "INV1234567890",
		Status:         enums.InvoiceStatusPending,
		TotalAmount:    dec("353.99"),
	}

	svc := newTestService(t, repo, ledgerFake)

	paid, err := svc.Pay(context.Background(), PayInput{
		BusinessID:    businessID,
		InvoiceID:     invoiceID,
		PaymentMethod: enums.PaymentMethodWallet,
	})
	if err != nil {
		t.Fatalf("Pay error: %v", err)
	}

	if paid.Status != enums.InvoiceStatusPaid || paid.PaidAt == nil {
		t.Fatalf("invoice not marked paid: %+v", paid)
	}
	if len(ledgerFake.entries) != 1 {
		t.Fatalf("expected one wallet debit, got %d", len(ledgerFake.entries))
	}
	entry := ledgerFake.entries[0]
	if entry.Type != enums.WalletTransactionTypeDebit || !entry.Amount.Equal(dec("353.99")) {
		t.Fatalf("debit = %s %s, want DEBIT 353.99", entry.Type, entry.Amount)
	}
	if repo.loyalty[customerID] != 3 {
		t.Fatalf("loyalty points = %d, want 3", repo.loyalty[customerID])
	}
	advanced, ok := repo.nextBilling[subscriptionID]
	if !ok {
		t.Fatal("next billing date not advanced")
	}
	if want := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC); !advanced.Equal(want) {
		t.Fatalf("next billing = %s, want %s", advanced, want)
	}
}

func TestPayNonPayableStatus(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)

	invoiceID := uuid.New()
	repo.invoices[invoiceID] = &models.Invoice{
		ID:          invoiceID,
		BusinessID:  businessID,
		CustomerID:  customerID,
		Status:      enums.InvoiceStatusPaid,
		TotalAmount: dec("100"),
	}
	svc := newTestService(t, repo, &fakeLedger{})

	_, err := svc.Pay(context.Background(), PayInput{
		BusinessID:    businessID,
		InvoiceID:     invoiceID,
		PaymentMethod: enums.PaymentMethodWallet,
	})
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestPayInsufficientBalancePropagates(t *testing.T) {
	repo := newFakeRepository()
	businessID := uuid.New()
	customerID := seedCustomer(repo, businessID)

	invoiceID := uuid.New()
	repo.invoices[invoiceID] = &models.Invoice{
		ID:          invoiceID,
		BusinessID:  businessID,
		CustomerID:  customerID,
		Status:      enums.InvoiceStatusPending,
		TotalAmount: dec("500"),
	}
	ledgerFake := &fakeLedger{err: pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")}
	svc := newTestService(t, repo, ledgerFake)

	_, err := svc.Pay(context.Background(), PayInput{
		BusinessID:    businessID,
		InvoiceID:     invoiceID,
		PaymentMethod: enums.PaymentMethodWallet,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	if repo.loyalty[customerID] != 0 {
		t.Fatal("loyalty should not accrue on failed payment")
	}
}

func TestGenerateTenantIsolation(t *testing.T) {
	repo := newFakeRepository()
	businessA := uuid.New()
	businessB := uuid.New()
	customerID := seedCustomer(repo, businessA)
	svc := newTestService(t, repo, &fakeLedger{})

	_, err := svc.Generate(context.Background(), nil, GenerateInput{
		BusinessID: businessB,
		CustomerID: customerID,
		Items:      []ManualItem{{Description: "Meal", Quantity: 1, UnitPrice: dec("100")}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for cross-tenant customer, got %v", err)
	}
}
