package roles

import (
	"context"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes group membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListRolesForUser returns every membership role the user holds.
func (r *Repository) ListRolesForUser(ctx context.Context, userID uuid.UUID) ([]enums.Role, error) {
	var rows []models.GroupMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	roles := make([]enums.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.Role)
	}
	return roles, nil
}

// ListMembers returns the users holding the provided role.
func (r *Repository) ListMembers(ctx context.Context, role enums.Role) ([]models.User, error) {
	var members []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN group_memberships ON group_memberships.user_id = users.id").
		Where("group_memberships.role = ?", role).
		Order("users.username").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// HasRole reports whether the user holds the provided role.
func (r *Repository) HasRole(ctx context.Context, userID uuid.UUID, role enums.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add persists a membership row.
func (r *Repository) Add(ctx context.Context, userID uuid.UUID, role enums.Role) error {
	membership := &models.GroupMembership{
		ID:     uuid.New(),
		UserID: userID,
		Role:   role,
	}
	return r.db.WithContext(ctx).Create(membership).Error
}

// Remove deletes the membership row if present.
func (r *Repository) Remove(ctx context.Context, userID uuid.UUID, role enums.Role) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.GroupMembership{}).Error
}
