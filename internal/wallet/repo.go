package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/pagination"
)

// HistoryFilter narrows a transaction history query. All lookups are scoped to
// the business tenant.
type HistoryFilter struct {
	BusinessID uuid.UUID
	CustomerID uuid.UUID
	Type       *enums.WalletTransactionType
	FromDate   *time.Time
	ToDate     *time.Time
	Page       pagination.Params
}

// Repository manages persistence for customers' wallets and their ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	FindCustomerForUpdate(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	UpdateCustomerBalance(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal) error
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, filter HistoryFilter) ([]models.WalletTransaction, int64, error)
	SumByDirection(ctx context.Context, businessID, customerID uuid.UUID) (credits, debits decimal.Decimal, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
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

// FindCustomerForUpdate locks the customer row so the balance read-then-write
// is serialized against concurrent ledger entries. Must run inside a
// transaction.
func (r *repository) FindCustomerForUpdate(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND business_id = ?", customerID, businessID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) UpdateCustomerBalance(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("wallet_balance", balance).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, filter HistoryFilter) ([]models.WalletTransaction, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("business_id = ? AND customer_id = ?", filter.BusinessID, filter.CustomerID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.WalletTransaction
	if err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *repository) SumByDirection(ctx context.Context, businessID, customerID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	type row struct {
		Credits decimal.Decimal
		Debits  decimal.Decimal
	}
	var result row
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN type IN ('CREDIT', 'REFUND', 'BONUS') THEN amount ELSE 0 END), 0) AS credits,
			COALESCE(SUM(CASE WHEN type = 'DEBIT' THEN amount ELSE 0 END), 0) AS debits`).
		Where("business_id = ? AND customer_id = ?", businessID, customerID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return result.Credits, result.Debits, nil
}
