package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// WalletTransaction records an immutable wallet ledger entry. Amount is always
// positive; the type carries the sign. BalanceAfter snapshots the customer's
// balance right after the entry applied. Rows are never updated or deleted.
type WalletTransaction struct {
	ID           uuid.UUID                     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID   uuid.UUID                     `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerID   uuid.UUID                     `gorm:"column:customer_id;type:uuid;not null;index"`
	Type         enums.WalletTransactionType   `gorm:"column:type;type:wallet_transaction_type;not null"`
	Amount       decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceAfter decimal.Decimal               `gorm:"column:balance_after;type:numeric(12,2);not null"`
	Description  string                        `gorm:"column:description;not null"`
	Reference    *string                       `gorm:"column:reference"`
	Status       enums.WalletTransactionStatus `gorm:"column:status;type:wallet_transaction_status;not null;default:'COMPLETED'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
