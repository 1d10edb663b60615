package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes cart persistence operations.
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

// ListByUser returns the user's cart lines with menu item detail.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// FindLine returns the user's line for the menu item, if any.
func (r *Repository) FindLine(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND menu_item_id = ?", userID, menuItemID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateLine persists a new cart line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine saves the quantity and derived price of an existing line.
func (r *Repository) UpdateLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error) {
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity": line.Quantity,
			"price":    line.Price,
		}).Error
	if err != nil {
		return nil, err
	}
	return line, nil
}

// DeleteByUser removes every line owned by the user.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
