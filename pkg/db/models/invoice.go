package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// Invoice bills a customer for a subscription cycle, a single order, or a
// manual item list. Exactly one billing source determines the subtotal.
type Invoice struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID     uuid.UUID            `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerID     uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	SubscriptionID *uuid.UUID           `gorm:"column:subscription_id;type:uuid;index"`
	OrderID        *uuid.UUID           `gorm:"column:order_id;type:uuid"`
	InvoiceNumber  string               `gorm:"column:invoice_number;not null;uniqueIndex"`
	Status         enums.InvoiceStatus  `gorm:"column:status;type:invoice_status;not null;default:'PENDING'"`
	SubtotalAmount decimal.Decimal      `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal      `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount decimal.Decimal      `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DueDate        time.Time            `gorm:"column:due_date;not null;index"`
	PaidAt         *time.Time           `gorm:"column:paid_at"`
	PaymentMethod  *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	BillingAddress *string              `gorm:"column:billing_address"`
	Items          []InvoiceItem        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// InvoiceItem is one manually itemized invoice line.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
