package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// InventoryItem tracks stock of an ingredient or prepared item per kitchen.
type InventoryItem struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID  `gorm:"column:business_id;type:uuid;not null;index"`
	KitchenID  *uuid.UUID `gorm:"column:kitchen_id;type:uuid"`
	MenuItemID *uuid.UUID `gorm:"column:menu_item_id;type:uuid;index"`
	Name       string     `gorm:"column:name;not null"`
	Unit       string     `gorm:"column:unit;not null;default:'unit'"`
	Quantity   int        `gorm:"column:quantity;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// StockMovement records one signed change of an inventory item's quantity,
// including the compensating restore written when a paid order is cancelled.
type StockMovement struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID      uuid.UUID               `gorm:"column:business_id;type:uuid;not null;index"`
	InventoryItemID uuid.UUID               `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	OrderID         *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	Type            enums.StockMovementType `gorm:"column:type;type:stock_movement_type;not null"`
	Quantity        int                     `gorm:"column:quantity;not null"`
	Reason          *string                 `gorm:"column:reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
