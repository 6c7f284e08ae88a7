package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

// Customer belongs to one business. WalletBalance is mutated only through the
// wallet ledger and must always equal the signed sum of the customer's
// transactions.
type Customer struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID    uuid.UUID       `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerCode  string          `gorm:"column:customer_code;not null;uniqueIndex"`
	Name          string          `gorm:"column:name;not null"`
	Email         *string         `gorm:"column:email;uniqueIndex"`
	Phone         *string         `gorm:"column:phone"`
	Address       *string         `gorm:"column:address"`
	WalletBalance decimal.Decimal `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	LoyaltyPoints int             `gorm:"column:loyalty_points;not null;default:0"`
	Preferences   types.JSONMap   `gorm:"column:preferences;type:jsonb;serializer:json"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
