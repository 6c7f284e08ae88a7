package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// SubscriptionPlan defines a billable cadence and the items delivered on each
// materialized order.
type SubscriptionPlan struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID   uuid.UUID       `gorm:"column:business_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Description  *string         `gorm:"column:description"`
	Type         enums.PlanType  `gorm:"column:type;type:plan_type;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DurationDays int             `gorm:"column:duration_days;not null;default:30"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	Items        []PlanItem      `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PlanItem links a menu item and quantity into a plan.
type PlanItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PlanID     uuid.UUID `gorm:"column:plan_id;type:uuid;not null;index"`
	MenuItemID uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null;default:1"`
	IsOptional bool      `gorm:"column:is_optional;not null;default:false"`
	MenuItem   *MenuItem `gorm:"foreignKey:MenuItemID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
