package plans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/pagination"
)

// ListFilter narrows plan list queries; always tenant-scoped.
type ListFilter struct {
	BusinessID uuid.UUID
	Type       *enums.PlanType
	IsActive   *bool
	Page       pagination.Params
}

// Repository manages subscription plan persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	FindByID(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error)
	List(ctx context.Context, filter ListFilter) ([]models.SubscriptionPlan, int64, error)
	Update(ctx context.Context, planID uuid.UUID, updates map[string]any) error
	ReplaceItems(ctx context.Context, planID uuid.UUID, items []models.PlanItem) error
	FindMenuItems(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) FindByID(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Where("id = ? AND business_id = ?", planID, businessID).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.SubscriptionPlan, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.SubscriptionPlan{}).
		Where("business_id = ?", filter.BusinessID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var plans []models.SubscriptionPlan
	if err := query.
		Preload("Items.MenuItem").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (r *repository) Update(ctx context.Context, planID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SubscriptionPlan{}).
		Where("id = ?", planID).
		Updates(updates).Error
}

func (r *repository) ReplaceItems(ctx context.Context, planID uuid.UUID, items []models.PlanItem) error {
	if err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Delete(&models.PlanItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindMenuItems(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
