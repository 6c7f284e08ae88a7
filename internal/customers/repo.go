package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/pagination"
)

// ListFilter narrows customer list queries; always tenant-scoped.
type ListFilter struct {
	BusinessID uuid.UUID
	Search     string
	IsActive   *bool
	Page       pagination.Params
}

// Repository manages customer persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	FindByEmail(ctx context.Context, businessID uuid.UUID, email string) (*models.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]models.Customer, int64, error)
	Update(ctx context.Context, customerID uuid.UUID, updates map[string]any) error
	CountActiveSubscriptions(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindByID(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", customerID, businessID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByEmail(ctx context.Context, businessID uuid.UUID, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND email = ?", businessID, email).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Customer, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("business_id = ?", filter.BusinessID)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR customer_code ILIKE ?", pattern, pattern, pattern)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []models.Customer
	if err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *repository) Update(ctx context.Context, customerID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(updates).Error
}

func (r *repository) CountActiveSubscriptions(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("customer_id = ? AND status = ?", customerID, enums.SubscriptionStatusActive).
		Count(&count).Error
	return count, err
}
