package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a purchasable catalog entry. Price is the current catalog
// price; cart lines and order items snapshot it at add time.
type MenuItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title      string          `gorm:"type:text;not null;index" json:"title"`
	Price      decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"price"`
	Featured   bool            `gorm:"column:featured;not null;default:false" json:"featured"`
	CategoryID uuid.UUID       `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	Category   *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
