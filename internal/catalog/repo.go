package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItemFilter narrows the menu item listing.
type MenuItemFilter struct {
	CategoryTitle string
	MaxPrice      *decimal.Decimal
	Search        string
	OrderBy       string
	Page          pagination.Params
}

// Repository exposes catalog persistence operations.
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

// ListCategories returns all categories ordered by title.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("title ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory persists a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindCategoryByID retrieves a category by primary key.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListMenuItems returns menu items matching the filter.
func (r *Repository) ListMenuItems(ctx context.Context, filter MenuItemFilter) ([]models.MenuItem, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Preload("Category")

	if filter.CategoryTitle != "" {
		query = query.
			Joins("JOIN categories ON categories.id = menu_items.category_id").
			Where("categories.title = ?", filter.CategoryTitle)
	}
	if filter.MaxPrice != nil {
		query = query.Where("menu_items.price <= ?", filter.MaxPrice)
	}
	if filter.Search != "" {
		query = query.Where("menu_items.title LIKE ?", "%"+filter.Search+"%")
	}

	query = query.Order(orderClause(filter.OrderBy))

	page := pagination.Normalize(filter.Page)
	query = query.Limit(page.Limit).Offset(page.Offset)

	var items []models.MenuItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func orderClause(orderBy string) string {
	direction := "ASC"
	field := strings.TrimSpace(orderBy)
	if strings.HasPrefix(field, "-") {
		direction = "DESC"
		field = field[1:]
	}
	switch field {
	case "price":
		return "menu_items.price " + direction
	case "title":
		return "menu_items.title " + direction
	default:
		return "menu_items.created_at ASC"
	}
}

// FindMenuItemByID retrieves a menu item with its category.
func (r *Repository) FindMenuItemByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateMenuItem persists a new menu item.
func (r *Repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateMenuItem saves the full menu item row.
func (r *Repository) UpdateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMenuItem removes the menu item row.
func (r *Repository) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.MenuItem{}).Error
}
