package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
)

// Order is a committed, priced collection of items with a delivery lifecycle.
// Once created it is immutable except for status, the crew assignment, and
// manager-driven field replacement.
type Order struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	DeliveryCrewID *uuid.UUID        `gorm:"column:delivery_crew_id;type:uuid;index" json:"delivery_crew_id"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
