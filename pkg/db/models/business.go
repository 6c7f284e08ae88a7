package models

import (
	"time"

	"github.com/google/uuid"
)

// Business is the tenant. Every other row carries its id and all queries are
// scoped to it.
type Business struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Email    *string   `gorm:"column:email"`
	Phone    *string   `gorm:"column:phone"`
	Address  *string   `gorm:"column:address"`
	IsActive bool      `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
