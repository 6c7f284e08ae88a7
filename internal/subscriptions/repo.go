package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/pagination"
)

// ListFilter narrows subscription list queries; always tenant-scoped.
type ListFilter struct {
	BusinessID uuid.UUID
	CustomerID *uuid.UUID
	Status     *enums.SubscriptionStatus
	Page       pagination.Params
}

// Repository persists subscriptions and the rows the orchestrator touches in
// the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, subscription *models.Subscription) error
	FindByID(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, filter ListFilter) ([]models.Subscription, int64, error)
	Update(ctx context.Context, subscriptionID uuid.UUID, updates map[string]any) error
	FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	FindActivePlan(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error)
	FindKitchen(ctx context.Context, businessID, kitchenID uuid.UUID) (*models.Kitchen, error)
	FindBusiestKitchen(ctx context.Context, businessID uuid.UUID) (*models.Kitchen, error)
	CreateOrders(ctx context.Context, orders []models.Order) error
	UpdateInvoice(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error
	AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error
	CancelPendingOrders(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (int64, error)
	FindDueForRenewal(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided
// database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) FindByID(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Plan.Items.MenuItem").
		Preload("Kitchen").
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_for ASC")
		}).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ? AND business_id = ?", subscriptionID, businessID).
		First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Subscription, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("business_id = ?", filter.BusinessID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subscriptions []models.Subscription
	if err := query.
		Preload("Customer").
		Preload("Plan").
		Preload("Kitchen").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&subscriptions).Error; err != nil {
		return nil, 0, err
	}
	return subscriptions, total, nil
}

func (r *repository) Update(ctx context.Context, subscriptionID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(updates).Error
}

func (r *repository) FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", customerID, businessID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindActivePlan(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Where("id = ? AND business_id = ? AND is_active = ?", planID, businessID, true).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindKitchen(ctx context.Context, businessID, kitchenID uuid.UUID) (*models.Kitchen, error) {
	var kitchen models.Kitchen
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ? AND is_active = ?", kitchenID, businessID, true).
		First(&kitchen).Error; err != nil {
		return nil, err
	}
	return &kitchen, nil
}

func (r *repository) FindBusiestKitchen(ctx context.Context, businessID uuid.UUID) (*models.Kitchen, error) {
	var kitchen models.Kitchen
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("capacity DESC").
		First(&kitchen).Error; err != nil {
		return nil, err
	}
	return &kitchen, nil
}

func (r *repository) CreateOrders(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}

func (r *repository) UpdateInvoice(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(updates).Error
}

func (r *repository) AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error {
	if points <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

func (r *repository) CancelPendingOrders(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("subscription_id = ? AND status = ? AND scheduled_for > ?",
			subscriptionID, enums.OrderStatusPending, now).
		Updates(map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FindDueForRenewal(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	query := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Plan.Items.MenuItem").
		Where("status = ? AND auto_renew = ? AND next_billing_date <= ?",
			enums.SubscriptionStatusActive, true, now).
		Order("next_billing_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}
