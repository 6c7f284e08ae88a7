package subscriptions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/internal/billing"
	"github.com/Samyy-Momin/onefooddialer/internal/invoices"
	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/codes"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeRepository struct {
	customers     map[uuid.UUID]*models.Customer
	plans         map[uuid.UUID]*models.SubscriptionPlan
	kitchens      []*models.Kitchen
	subscriptions map[uuid.UUID]*models.Subscription
	orders        []models.Order
	invoices      map[uuid.UUID]*models.Invoice
	loyalty       map[uuid.UUID]int
	transactions  []models.WalletTransaction
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		customers:     map[uuid.UUID]*models.Customer{},
		plans:         map[uuid.UUID]*models.SubscriptionPlan{},
		subscriptions: map[uuid.UUID]*models.Subscription{},
		invoices:      map[uuid.UUID]*models.Invoice{},
		loyalty:       map[uuid.UUID]int{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	subscription.ID = uuid.New()
	f.subscriptions[subscription.ID] = subscription
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, ok := f.subscriptions[subscriptionID]
	if !ok || subscription.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	hydrated := *subscription
	hydrated.Customer = f.customers[subscription.CustomerID]
	hydrated.Plan = f.plans[subscription.PlanID]
	hydrated.Orders = nil
	for _, order := range f.orders {
		if order.SubscriptionID != nil && *order.SubscriptionID == subscription.ID {
			hydrated.Orders = append(hydrated.Orders, order)
		}
	}
	hydrated.Invoices = nil
	for _, invoice := range f.invoices {
		if invoice.SubscriptionID != nil && *invoice.SubscriptionID == subscription.ID {
			hydrated.Invoices = append(hydrated.Invoices, *invoice)
		}
	}
	return &hydrated, nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.Subscription, int64, error) {
	var out []models.Subscription
	for _, subscription := range f.subscriptions {
		if subscription.BusinessID != filter.BusinessID {
			continue
		}
		if filter.Status != nil && subscription.Status != *filter.Status {
			continue
		}
		out = append(out, *subscription)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) Update(ctx context.Context, subscriptionID uuid.UUID, updates map[string]any) error {
	subscription, ok := f.subscriptions[subscriptionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.SubscriptionStatus); ok {
		subscription.Status = status
	}
	if endDate, ok := updates["end_date"].(time.Time); ok {
		subscription.EndDate = &endDate
	}
	if autoRenew, ok := updates["auto_renew"].(bool); ok {
		subscription.AutoRenew = autoRenew
	}
	if next, ok := updates["next_billing_date"].(time.Time); ok {
		subscription.NextBillingDate = next
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

func (f *fakeRepository) FindActivePlan(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, ok := f.plans[planID]
	if !ok || plan.BusinessID != businessID || !plan.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (f *fakeRepository) FindKitchen(ctx context.Context, businessID, kitchenID uuid.UUID) (*models.Kitchen, error) {
	for _, kitchen := range f.kitchens {
		if kitchen.ID == kitchenID && kitchen.BusinessID == businessID && kitchen.IsActive {
			return kitchen, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindBusiestKitchen(ctx context.Context, businessID uuid.UUID) (*models.Kitchen, error) {
	var best *models.Kitchen
	for _, kitchen := range f.kitchens {
		if kitchen.BusinessID != businessID || !kitchen.IsActive {
			continue
		}
		if best == nil || kitchen.Capacity > best.Capacity {
			best = kitchen
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (f *fakeRepository) CreateOrders(ctx context.Context, orders []models.Order) error {
	for i := range orders {
		orders[i].ID = uuid.New()
	}
	f.orders = append(f.orders, orders...)
	return nil
}

func (f *fakeRepository) UpdateInvoice(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error {
	invoice, ok := f.invoices[invoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.InvoiceStatus); ok {
		invoice.Status = status
	}
	if paidAt, ok := updates["paid_at"].(time.Time); ok {
		invoice.PaidAt = &paidAt
	}
	if method, ok := updates["payment_method"].(enums.PaymentMethod); ok {
		invoice.PaymentMethod = &method
	}
	return nil
}

func (f *fakeRepository) AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error {
	f.loyalty[customerID] += points
	return nil
}

func (f *fakeRepository) CancelPendingOrders(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (int64, error) {
	var cancelled int64
	for i := range f.orders {
		order := &f.orders[i]
		if order.SubscriptionID == nil || *order.SubscriptionID != subscriptionID {
			continue
		}
		if order.Status == enums.OrderStatusPending && order.ScheduledFor.After(now) {
			order.Status = enums.OrderStatusCancelled
			order.CancelledAt = &now
			cancelled++
		}
	}
	return cancelled, nil
}

func (f *fakeRepository) FindDueForRenewal(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var due []models.Subscription
	for _, subscription := range f.subscriptions {
		if subscription.Status != enums.SubscriptionStatusActive || !subscription.AutoRenew {
			continue
		}
		if subscription.NextBillingDate.After(now) {
			continue
		}
		hydrated := *subscription
		hydrated.Customer = f.customers[subscription.CustomerID]
		hydrated.Plan = f.plans[subscription.PlanID]
		due = append(due, hydrated)
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}

// snapshotTxRunner restores the fake repository's state when the transaction
// callback fails, mirroring a database rollback.
type snapshotTxRunner struct {
	repo *fakeRepository
}

func (r snapshotTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	balances := map[uuid.UUID]decimal.Decimal{}
	for id, customer := range r.repo.customers {
		balances[id] = customer.WalletBalance
	}
	loyalty := map[uuid.UUID]int{}
	for id, points := range r.repo.loyalty {
		loyalty[id] = points
	}
	subscriptions := map[uuid.UUID]models.Subscription{}
	for id, subscription := range r.repo.subscriptions {
		subscriptions[id] = *subscription
	}
	invoicesCopy := map[uuid.UUID]models.Invoice{}
	for id, invoice := range r.repo.invoices {
		invoicesCopy[id] = *invoice
	}
	orders := make([]models.Order, len(r.repo.orders))
	copy(orders, r.repo.orders)
	transactions := make([]models.WalletTransaction, len(r.repo.transactions))
	copy(transactions, r.repo.transactions)

	err := fn(nil)
	if err == nil {
		return nil
	}

	for id, balance := range balances {
		r.repo.customers[id].WalletBalance = balance
	}
	r.repo.loyalty = loyalty
	r.repo.subscriptions = map[uuid.UUID]*models.Subscription{}
	for id := range subscriptions {
		restored := subscriptions[id]
		r.repo.subscriptions[id] = &restored
	}
	r.repo.invoices = map[uuid.UUID]*models.Invoice{}
	for id := range invoicesCopy {
		restored := invoicesCopy[id]
		r.repo.invoices[id] = &restored
	}
	r.repo.orders = orders
	r.repo.transactions = transactions
	return err
}

// fakeLedger applies wallet entries straight against the fake repository's
// customers, enforcing the non-negative balance rule.
type fakeLedger struct {
	repo *fakeRepository
}

func (f *fakeLedger) Apply(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error) {
	customer, ok := f.repo.customers[input.CustomerID]
	if !ok || customer.BusinessID != input.BusinessID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	var newBalance decimal.Decimal
	if input.Type.IsCreditDirection() {
		newBalance = customer.WalletBalance.Add(input.Amount)
	} else {
		if input.Amount.GreaterThan(customer.WalletBalance) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")
		}
		newBalance = customer.WalletBalance.Sub(input.Amount)
	}
	customer.WalletBalance = newBalance
	txn := models.WalletTransaction{
		BusinessID:   input.BusinessID,
		CustomerID:   input.CustomerID,
		Type:         input.Type,
		Amount:       input.Amount,
		BalanceAfter: newBalance,
		Description:  input.Description,
		Reference:    input.Reference,
		Status:       enums.WalletTransactionStatusCompleted,
	}
	f.repo.transactions = append(f.repo.transactions, txn)
	return &txn, nil
}

// fakeInvoiceGenerator prices subscription invoices off the plan the same way
// the real generator does.
type fakeInvoiceGenerator struct {
	repo *fakeRepository
}

func (f *fakeInvoiceGenerator) Generate(ctx context.Context, tx *gorm.DB, input invoices.GenerateInput) (*models.Invoice, error) {
	if input.SubscriptionID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}
	subscription, ok := f.repo.subscriptions[*input.SubscriptionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	plan, ok := f.repo.plans[subscription.PlanID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription has no plan")
	}
	totals, err := billing.TotalsFromSubtotal(plan.Price, dec("0.18"), decimal.Zero)
	if err != nil {
		return nil, err
	}
	invoice := &models.Invoice{
		ID:             uuid.New(),
		BusinessID:     input.BusinessID,
		CustomerID:     input.CustomerID,
		SubscriptionID: input.SubscriptionID,
		InvoiceNumber:  codes.InvoiceNumber(),
		Status:         enums.InvoiceStatusPending,
		SubtotalAmount: totals.Subtotal.Round(2),
		TaxAmount:      totals.TaxAmount.Round(2),
		TotalAmount:    totals.Total.Round(2),
	}
	f.repo.invoices[invoice.ID] = invoice
	return invoice, nil
}

type fixture struct {
	repo       *fakeRepository
	svc        Service
	businessID uuid.UUID
	customerID uuid.UUID
	planID     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepository()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, snapshotTxRunner{repo: repo}, &fakeLedger{repo: repo}, &fakeInvoiceGenerator{repo: repo}, dec("0.18"), logg)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	businessID := uuid.New()
	customerID := uuid.New()
	address := "12 Curry Lane"
	repo.customers[customerID] = &models.Customer{
		ID:            customerID,
		BusinessID:    businessID,
		Address:       &address,
		WalletBalance: dec("1000"),
	}

	menuItemID := uuid.New()
	planID := uuid.New()
	repo.plans[planID] = &models.SubscriptionPlan{
		ID:         planID,
		BusinessID: businessID,
		Name:       "Monthly Veg Thali",
		Type:       enums.PlanTypeMonthly,
		Price:      dec("299.99"),
		IsActive:   true,
		Items: []models.PlanItem{
			{
				PlanID:     planID,
				MenuItemID: menuItemID,
				Quantity:   2,
				MenuItem:   &models.MenuItem{ID: menuItemID, BusinessID: businessID, Name: "Veg Thali", Price: dec("120")},
			},
		},
	}
	repo.kitchens = []*models.Kitchen{
		{ID: uuid.New(), BusinessID: businessID, Name: "North", Capacity: 50, IsActive: true},
		{ID: uuid.New(), BusinessID: businessID, Name: "Central", Capacity: 80, IsActive: true},
	}

	return &fixture{repo: repo, svc: svc, businessID: businessID, customerID: customerID, planID: planID}
}

func (f *fixture) freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	f.svc.(*service).now = func() time.Time { return at }
}

func TestCreateEndToEnd(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	fx.freezeClock(t, start)

	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if subscription.Status != enums.SubscriptionStatusActive {
		t.Fatalf("status = %s, want ACTIVE", subscription.Status)
	}
	if want := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC); !subscription.NextBillingDate.Equal(want) {
		t.Fatalf("next billing = %s, want %s", subscription.NextBillingDate, want)
	}

	// Busiest active kitchen is auto-assigned.
	if subscription.KitchenID == nil {
		t.Fatal("kitchen should be auto-assigned")
	}
	if *subscription.KitchenID != fx.repo.kitchens[1].ID {
		t.Fatal("auto-assignment should pick the kitchen with the greatest capacity")
	}

	if len(subscription.Orders) != 3 {
		t.Fatalf("expected 3 scheduled orders for a monthly plan, got %d", len(subscription.Orders))
	}
	for i, order := range subscription.Orders {
		if want := start.AddDate(0, i, 0); !order.ScheduledFor.Equal(want) {
			t.Fatalf("order %d scheduled for %s, want %s", i, order.ScheduledFor, want)
		}
		if order.Status != enums.OrderStatusPending || order.Type != enums.OrderTypeSubscription {
			t.Fatalf("order %d = %s/%s, want PENDING/SUBSCRIPTION", i, order.Status, order.Type)
		}
		// Orders are priced off the taxed plan price, same as the invoice.
		if !order.TotalAmount.Equal(dec("299.99")) {
			t.Fatalf("order %d total = %s, want the plan price 299.99", i, order.TotalAmount)
		}
		if !order.TaxAmount.Equal(dec("54.00")) {
			t.Fatalf("order %d tax = %s, want 54.00", i, order.TaxAmount)
		}
		if !order.FinalAmount.Equal(dec("353.99")) {
			t.Fatalf("order %d final = %s, want 353.99", i, order.FinalAmount)
		}
		if order.DeliveryAddress == nil || *order.DeliveryAddress != "12 Curry Lane" {
			t.Fatalf("order %d should fall back to the customer address", i)
		}
	}

	if len(subscription.Invoices) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(subscription.Invoices))
	}
	invoice := subscription.Invoices[0]
	if !invoice.TotalAmount.Equal(dec("353.99")) {
		t.Fatalf("invoice total = %s, want 353.99", invoice.TotalAmount)
	}
	if invoice.Status != enums.InvoiceStatusPaid {
		t.Fatalf("invoice status = %s, want PAID", invoice.Status)
	}

	if balance := fx.repo.customers[fx.customerID].WalletBalance; !balance.Equal(dec("646.01")) {
		t.Fatalf("wallet balance = %s, want 646.01", balance)
	}
	if fx.repo.loyalty[fx.customerID] != 3 {
		t.Fatalf("loyalty points = %d, want 3", fx.repo.loyalty[fx.customerID])
	}

	if len(fx.repo.transactions) != 1 {
		t.Fatalf("wallet transactions = %d, want the single debit", len(fx.repo.transactions))
	}
	if got := fx.repo.transactions[0].Description; got != "Subscription Monthly Veg Thali" {
		t.Fatalf("debit description = %q, want the plan name", got)
	}
}

func TestCreateRequiresStartDate(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for missing start date, got %v", err)
	}
	if len(fx.repo.subscriptions) != 0 {
		t.Fatal("rejected creation must not leave a subscription behind")
	}
}

func TestEndDateFlowsThroughCreateAndUpdate(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
		EndDate:    &end,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if subscription.EndDate == nil || !subscription.EndDate.Equal(end) {
		t.Fatalf("end date = %v, want %s", subscription.EndDate, end)
	}

	moved := end.AddDate(0, 6, 0)
	updated, err := fx.svc.Update(context.Background(), UpdateInput{
		BusinessID:     fx.businessID,
		SubscriptionID: subscription.ID,
		EndDate:        &moved,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.EndDate == nil || !updated.EndDate.Equal(moved) {
		t.Fatalf("end date after update = %v, want %s", updated.EndDate, moved)
	}
}

func TestCreateInsufficientBalanceRollsBack(t *testing.T) {
	fx := newFixture(t)
	fx.repo.customers[fx.customerID].WalletBalance = dec("100")

	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	_, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}

	if len(fx.repo.subscriptions) != 0 {
		t.Fatal("failed creation must not leave a subscription behind")
	}
	if len(fx.repo.orders) != 0 {
		t.Fatal("failed creation must not leave orders behind")
	}
	if len(fx.repo.invoices) != 0 {
		t.Fatal("failed creation must not leave invoices behind")
	}
	if balance := fx.repo.customers[fx.customerID].WalletBalance; !balance.Equal(dec("100")) {
		t.Fatalf("wallet balance = %s, want untouched 100", balance)
	}
}

func TestCreateInactivePlanRejected(t *testing.T) {
	fx := newFixture(t)
	fx.repo.plans[fx.planID].IsActive = false

	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	_, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for inactive plan, got %v", err)
	}
}

func TestCreateWithoutKitchens(t *testing.T) {
	fx := newFixture(t)
	fx.repo.kitchens = nil

	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if subscription.KitchenID != nil {
		t.Fatal("subscription should be created without a kitchen when none is active")
	}
}

func TestCancelSoftDeletes(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	fx.freezeClock(t, start)

	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Cancel midway through the cycle: the two remaining deliveries go with it.
	fx.freezeClock(t, start.AddDate(0, 0, 10))
	cancelled, err := fx.svc.Cancel(context.Background(), fx.businessID, subscription.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	if cancelled.Status != enums.SubscriptionStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.EndDate == nil {
		t.Fatal("end date must be stamped on cancellation")
	}
	if cancelled.AutoRenew {
		t.Fatal("auto-renew must be switched off on cancellation")
	}

	var cancelledOrders int
	for _, order := range cancelled.Orders {
		if order.Status == enums.OrderStatusCancelled {
			cancelledOrders++
		}
	}
	if cancelledOrders != 2 {
		t.Fatalf("cancelled orders = %d, want 2 future deliveries", cancelledOrders)
	}

	_, err = fx.svc.Cancel(context.Background(), fx.businessID, subscription.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("second cancel should conflict, got %v", err)
	}
}

func TestUpdateCancelledRejected(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := fx.svc.Cancel(context.Background(), fx.businessID, subscription.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	autoRenew := true
	_, err = fx.svc.Update(context.Background(), UpdateInput{
		BusinessID:     fx.businessID,
		SubscriptionID: subscription.ID,
		AutoRenew:      &autoRenew,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestUpdateStatusOnlyPauseResume(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	status := enums.SubscriptionStatusCancelled
	_, err = fx.svc.Update(context.Background(), UpdateInput{
		BusinessID:     fx.businessID,
		SubscriptionID: subscription.ID,
		Status:         &status,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("cancellation through update should be rejected, got %v", err)
	}

	paused := enums.SubscriptionStatusPaused
	updated, err := fx.svc.Update(context.Background(), UpdateInput{
		BusinessID:     fx.businessID,
		SubscriptionID: subscription.ID,
		Status:         &paused,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Status != enums.SubscriptionStatusPaused {
		t.Fatalf("status = %s, want PAUSED", updated.Status)
	}
}

func TestProcessRenewals(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	fx.freezeClock(t, start)

	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// One month later the subscription is due again.
	fx.freezeClock(t, start.AddDate(0, 1, 0))
	run, err := fx.svc.ProcessRenewals(context.Background(), 100)
	if err != nil {
		t.Fatalf("ProcessRenewals error: %v", err)
	}
	if run.Processed != 1 || run.Paid != 1 || run.Unpaid != 0 {
		t.Fatalf("run = %+v, want 1 processed and paid", run)
	}

	renewed, err := fx.svc.Get(context.Background(), fx.businessID, subscription.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if want := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC); !renewed.NextBillingDate.Equal(want) {
		t.Fatalf("next billing = %s, want %s", renewed.NextBillingDate, want)
	}
	if len(renewed.Invoices) != 2 {
		t.Fatalf("invoices = %d, want 2 after renewal", len(renewed.Invoices))
	}
	if len(renewed.Orders) != 6 {
		t.Fatalf("orders = %d, want 6 after second cycle", len(renewed.Orders))
	}
	// 1000 - 353.99 - 353.99
	if balance := fx.repo.customers[fx.customerID].WalletBalance; !balance.Equal(dec("292.02")) {
		t.Fatalf("wallet balance = %s, want 292.02", balance)
	}
}

func TestProcessRenewalsInsufficientBalance(t *testing.T) {
	fx := newFixture(t)
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	fx.freezeClock(t, start)

	subscription, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		CustomerID: fx.customerID,
		PlanID:     fx.planID,
		StartDate:  &start,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	fx.repo.customers[fx.customerID].WalletBalance = dec("10")
	fx.freezeClock(t, start.AddDate(0, 1, 0))

	run, err := fx.svc.ProcessRenewals(context.Background(), 100)
	if err != nil {
		t.Fatalf("ProcessRenewals error: %v", err)
	}
	if run.Processed != 1 || run.Unpaid != 1 {
		t.Fatalf("run = %+v, want 1 processed and unpaid", run)
	}

	renewed, err := fx.svc.Get(context.Background(), fx.businessID, subscription.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	var pending int
	for _, invoice := range renewed.Invoices {
		if invoice.Status == enums.InvoiceStatusPending {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("pending invoices = %d, want the renewal invoice left unpaid", pending)
	}
	// The cycle still advances so the customer can settle later.
	if want := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC); !renewed.NextBillingDate.Equal(want) {
		t.Fatalf("next billing = %s, want %s", renewed.NextBillingDate, want)
	}
	if balance := fx.repo.customers[fx.customerID].WalletBalance; !balance.Equal(dec("10")) {
		t.Fatalf("wallet balance = %s, want untouched 10", balance)
	}
}
