package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	"github.com/littlelemonhq/littlelemon-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes order persistence operations.
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

// Create persists the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ListAll returns every order, oldest first.
func (r *Repository) ListAll(ctx context.Context, page pagination.Params) ([]models.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx), page)
}

// ListByOwner returns the orders placed by the user.
func (r *Repository) ListByOwner(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	return r.list(ctx, query, page)
}

// ListByAssignee returns the orders assigned to the crew member.
func (r *Repository) ListByAssignee(ctx context.Context, crewID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("delivery_crew_id = ?", crewID)
	return r.list(ctx, query, page)
}

func (r *Repository) list(ctx context.Context, query *gorm.DB, page pagination.Params) ([]models.Order, error) {
	page = pagination.Normalize(page)
	var orders []models.Order
	err := query.
		Preload("Items.MenuItem").
		Order("created_at ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByID retrieves an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateFieldsIfStatus applies the column updates only while the order still
// carries the expected status, reporting how many rows matched. A zero count
// means another writer moved the status first.
func (r *Repository) UpdateFieldsIfStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// Delete removes the order and its items.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}
