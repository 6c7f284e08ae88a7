package plans

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

type fakeRepository struct {
	plans     map[uuid.UUID]*models.SubscriptionPlan
	menuItems map[uuid.UUID]models.MenuItem
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		plans:     map[uuid.UUID]*models.SubscriptionPlan{},
		menuItems: map[uuid.UUID]models.MenuItem{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	plan.ID = uuid.New()
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, ok := f.plans[planID]
	if !ok || plan.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *plan
	return &copied, nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.SubscriptionPlan, int64, error) {
	var out []models.SubscriptionPlan
	for _, plan := range f.plans {
		if plan.BusinessID != filter.BusinessID {
			continue
		}
		if filter.IsActive != nil && plan.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *plan)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) Update(ctx context.Context, planID uuid.UUID, updates map[string]any) error {
	plan, ok := f.plans[planID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		plan.Name = name
	}
	if price, ok := updates["price"].(decimal.Decimal); ok {
		plan.Price = price
	}
	if isActive, ok := updates["is_active"].(bool); ok {
		plan.IsActive = isActive
	}
	return nil
}

func (f *fakeRepository) ReplaceItems(ctx context.Context, planID uuid.UUID, items []models.PlanItem) error {
	plan, ok := f.plans[planID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	plan.Items = items
	return nil
}

func (f *fakeRepository) FindMenuItems(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, id := range ids {
		if item, ok := f.menuItems[id]; ok && item.BusinessID == businessID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fixture struct {
	repo       *fakeRepository
	svc        Service
	businessID uuid.UUID
	menuItemID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepository()
	svc, err := NewService(repo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	businessID := uuid.New()
	menuItemID := uuid.New()
	repo.menuItems[menuItemID] = models.MenuItem{
		ID: menuItemID, BusinessID: businessID, Name: "Veg Thali", Price: dec("120"), IsAvailable: true,
	}
	return &fixture{repo: repo, svc: svc, businessID: businessID, menuItemID: menuItemID}
}

func TestCreatePlan(t *testing.T) {
	fx := newFixture(t)

	plan, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		Name:       "Monthly Veg Thali",
		Type:       enums.PlanTypeMonthly,
		Price:      dec("299.99"),
		Items:      []ItemInput{{MenuItemID: fx.menuItemID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !plan.IsActive {
		t.Fatal("new plans start active")
	}
	if plan.DurationDays != 30 {
		t.Fatalf("duration = %d, want default 30", plan.DurationDays)
	}
	if len(plan.Items) != 1 || plan.Items[0].Quantity != 2 {
		t.Fatalf("items not persisted: %+v", plan.Items)
	}
}

func TestCreatePlanValidation(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name     string
		input    CreateInput
		wantCode pkgerrors.Code
	}{
		{
			"missing items",
			CreateInput{BusinessID: fx.businessID, Name: "P", Type: enums.PlanTypeDaily, Price: dec("10")},
			pkgerrors.CodeValidation,
		},
		{
			"zero price",
			CreateInput{BusinessID: fx.businessID, Name: "P", Type: enums.PlanTypeDaily, Price: decimal.Zero,
				Items: []ItemInput{{MenuItemID: fx.menuItemID, Quantity: 1}}},
			pkgerrors.CodeValidation,
		},
		{
			"bad plan type",
			CreateInput{BusinessID: fx.businessID, Name: "P", Type: enums.PlanType("YEARLY"), Price: dec("10"),
				Items: []ItemInput{{MenuItemID: fx.menuItemID, Quantity: 1}}},
			pkgerrors.CodeValidation,
		},
		{
			"unknown menu item",
			CreateInput{BusinessID: fx.businessID, Name: "P", Type: enums.PlanTypeDaily, Price: dec("10"),
				Items: []ItemInput{{MenuItemID: uuid.New(), Quantity: 1}}},
			pkgerrors.CodeNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestUpdateReplacesItems(t *testing.T) {
	fx := newFixture(t)
	plan, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		Name:       "Monthly Veg Thali",
		Type:       enums.PlanTypeMonthly,
		Price:      dec("299.99"),
		Items:      []ItemInput{{MenuItemID: fx.menuItemID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	otherItemID := uuid.New()
	fx.repo.menuItems[otherItemID] = models.MenuItem{
		ID: otherItemID, BusinessID: fx.businessID, Name: "Lassi", Price: dec("50"),
	}

	newPrice := dec("349.99")
	updated, err := fx.svc.Update(context.Background(), UpdateInput{
		BusinessID: fx.businessID,
		PlanID:     plan.ID,
		Price:      &newPrice,
		Items:      []ItemInput{{MenuItemID: otherItemID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("price = %s, want 349.99", updated.Price)
	}
	if len(updated.Items) != 1 || updated.Items[0].MenuItemID != otherItemID {
		t.Fatalf("items not replaced: %+v", updated.Items)
	}
}

func TestDeactivatePlan(t *testing.T) {
	fx := newFixture(t)
	plan, err := fx.svc.Create(context.Background(), CreateInput{
		BusinessID: fx.businessID,
		Name:       "Monthly Veg Thali",
		Type:       enums.PlanTypeMonthly,
		Price:      dec("299.99"),
		Items:      []ItemInput{{MenuItemID: fx.menuItemID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	deactivated, err := fx.svc.Deactivate(context.Background(), fx.businessID, plan.ID)
	if err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
	if deactivated.IsActive {
		t.Fatal("plan should be inactive")
	}

	_, err = fx.svc.Deactivate(context.Background(), fx.businessID, plan.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("second deactivate should conflict, got %v", err)
	}
}
