package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
)

// GroupMembership records that a user belongs to a staff role set. Roles are
// not mutually exclusive; a user may hold several memberships.
type GroupMembership struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_group_user_role"`
	Role      enums.Role `gorm:"column:role;type:text;not null;uniqueIndex:idx_group_user_role"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
