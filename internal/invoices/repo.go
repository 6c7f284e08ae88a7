package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/pagination"
)

// ListFilter narrows invoice list queries; always tenant-scoped.
type ListFilter struct {
	BusinessID uuid.UUID
	CustomerID *uuid.UUID
	Status     *enums.InvoiceStatus
	Page       pagination.Params
}

// Repository manages invoice persistence and the lookups the generator needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]models.Invoice, int64, error)
	Update(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error
	FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	FindSubscription(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error)
	FindOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error)
	AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error
	UpdateSubscriptionNextBilling(ctx context.Context, subscriptionID uuid.UUID, next time.Time) error
	MarkOverdue(ctx context.Context, businessID *uuid.UUID, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND business_id = ?", invoiceID, businessID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Invoice, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
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

	var invoices []models.Invoice
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *repository) Update(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
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

func (r *repository) FindSubscription(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("id = ? AND business_id = ?", subscriptionID, businessID).
		First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) FindOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", orderID, businessID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
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

func (r *repository) UpdateSubscriptionNextBilling(ctx context.Context, subscriptionID uuid.UUID, next time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("next_billing_date", next).Error
}

func (r *repository) MarkOverdue(ctx context.Context, businessID *uuid.UUID, now time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", enums.InvoiceStatusPending, now)
	if businessID != nil {
		query = query.Where("business_id = ?", *businessID)
	}
	res := query.Update("status", enums.InvoiceStatusOverdue)
	return res.RowsAffected, res.Error
}
