package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Kitchen prepares orders for a business. Capacity drives auto-assignment when
// a subscription does not name a kitchen.
type Kitchen struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID   uuid.UUID      `gorm:"column:business_id;type:uuid;not null;index"`
	Name         string         `gorm:"column:name;not null"`
	Address      *string        `gorm:"column:address"`
	Capacity     int            `gorm:"column:capacity;not null;default:0"`
	CuisineTypes pq.StringArray `gorm:"column:cuisine_types;type:text[]"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
