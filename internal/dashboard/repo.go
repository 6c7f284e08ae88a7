package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// Repository computes the back-office aggregates straight from the source
// tables; nothing here is cached or estimated.
type Repository interface {
	CountCustomers(ctx context.Context, businessID uuid.UUID, activeOnly bool) (int64, error)
	CountSubscriptionsByStatus(ctx context.Context, businessID uuid.UUID) (map[enums.SubscriptionStatus]int64, error)
	CountOrdersScheduledBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int64, error)
	CountOrdersByStatus(ctx context.Context, businessID uuid.UUID) (map[enums.OrderStatus]int64, error)
	SumPaidInvoicesBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	CountOpenInvoices(ctx context.Context, businessID uuid.UUID) (int64, error)
	SumWalletBalances(ctx context.Context, businessID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountCustomers(ctx context.Context, businessID uuid.UUID, activeOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("business_id = ?", businessID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *repository) CountSubscriptionsByStatus(ctx context.Context, businessID uuid.UUID) (map[enums.SubscriptionStatus]int64, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("status, COUNT(*) AS count").
		Where("business_id = ?", businessID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.SubscriptionStatus]int64, len(rows))
	for _, row := range rows {
		out[enums.SubscriptionStatus(row.Status)] = row.Count
	}
	return out, nil
}

func (r *repository) CountOrdersScheduledBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("business_id = ? AND scheduled_for >= ? AND scheduled_for < ?", businessID, from, to).
		Count(&count).Error
	return count, err
}

func (r *repository) CountOrdersByStatus(ctx context.Context, businessID uuid.UUID) (map[enums.OrderStatus]int64, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("business_id = ?", businessID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[enums.OrderStatus(row.Status)] = row.Count
	}
	return out, nil
}

func (r *repository) SumPaidInvoicesBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("business_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?",
			businessID, enums.InvoiceStatusPaid, from, to).
		Scan(&row).Error
	return row.Total, err
}

func (r *repository) CountOpenInvoices(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("business_id = ? AND status IN ?", businessID,
			[]enums.InvoiceStatus{enums.InvoiceStatusPending, enums.InvoiceStatusOverdue}).
		Count(&count).Error
	return count, err
}

func (r *repository) SumWalletBalances(ctx context.Context, businessID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select("COALESCE(SUM(wallet_balance), 0) AS total").
		Where("business_id = ?", businessID).
		Scan(&row).Error
	return row.Total, err
}
