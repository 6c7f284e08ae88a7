package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

// Subscription ties a customer to a plan and drives recurring order and
// invoice generation. Cancellation is a soft transition, never a row delete.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID           uuid.UUID                `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerID           uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	PlanID               uuid.UUID                `gorm:"column:plan_id;type:uuid;not null"`
	KitchenID            *uuid.UUID               `gorm:"column:kitchen_id;type:uuid"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'ACTIVE'"`
	StartDate            time.Time                `gorm:"column:start_date;not null"`
	EndDate              *time.Time               `gorm:"column:end_date"`
	NextBillingDate      time.Time                `gorm:"column:next_billing_date;not null;index"`
	AutoRenew            bool                     `gorm:"column:auto_renew;not null;default:true"`
	DeliveryAddress      *string                  `gorm:"column:delivery_address"`
	DeliveryInstructions *string                  `gorm:"column:delivery_instructions"`
	Customizations       types.JSONMap            `gorm:"column:customizations;type:jsonb;serializer:json"`

	Customer *Customer         `gorm:"foreignKey:CustomerID"`
	Plan     *SubscriptionPlan `gorm:"foreignKey:PlanID"`
	Kitchen  *Kitchen          `gorm:"foreignKey:KitchenID"`
	Orders   []Order           `gorm:"foreignKey:SubscriptionID"`
	Invoices []Invoice         `gorm:"foreignKey:SubscriptionID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
