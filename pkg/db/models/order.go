package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// Order is one scheduled delivery, either materialized from a subscription or
// placed directly.
type Order struct {
	ID                   uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID           uuid.UUID         `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerID           uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	KitchenID            *uuid.UUID        `gorm:"column:kitchen_id;type:uuid"`
	SubscriptionID       *uuid.UUID        `gorm:"column:subscription_id;type:uuid;index"`
	OrderNumber          string            `gorm:"column:order_number;not null;uniqueIndex"`
	Type                 enums.OrderType   `gorm:"column:type;type:order_type;not null;default:'ONE_TIME'"`
	Status               enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	ScheduledFor         time.Time         `gorm:"column:scheduled_for;not null;index"`
	TotalAmount          decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	TaxAmount            decimal.Decimal   `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	FinalAmount          decimal.Decimal   `gorm:"column:final_amount;type:numeric(12,2);not null"`
	DeliveryAddress      *string           `gorm:"column:delivery_address"`
	DeliveryInstructions *string           `gorm:"column:delivery_instructions"`
	PreparedAt           *time.Time        `gorm:"column:prepared_at"`
	DeliveredAt          *time.Time        `gorm:"column:delivered_at"`
	CancelledAt          *time.Time        `gorm:"column:cancelled_at"`
	Items                []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one line of an order with its price frozen at creation.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
