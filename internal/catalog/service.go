package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListMenuItems(ctx context.Context, filter MenuItemFilter) ([]models.MenuItem, error)
	FindMenuItemByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
}

// CreateCategoryInput carries the fields for a new category.
type CreateCategoryInput struct {
	Title string
}

// MenuItemInput carries the fields for creating or replacing a menu item.
type MenuItemInput struct {
	Title      string
	Price      decimal.Decimal
	Featured   bool
	CategoryID uuid.UUID
}

// MenuItemPatch carries the optional fields of a partial update.
type MenuItemPatch struct {
	Title      *string
	Price      *decimal.Decimal
	Featured   *bool
	CategoryID *uuid.UUID
}

// Service owns the category and menu item catalog.
type Service struct {
	repo repo
}

// NewService wires the catalog service.
func NewService(repository repo) (*Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{repo: repository}, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

// CreateCategory adds a category with a unique title.
func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	category, err := s.repo.CreateCategory(ctx, &models.Category{ID: uuid.New(), Title: title})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

// ListMenuItems returns the filtered, paginated menu.
func (s *Service) ListMenuItems(ctx context.Context, filter MenuItemFilter) ([]models.MenuItem, error) {
	items, err := s.repo.ListMenuItems(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	return items, nil
}

// GetMenuItem retrieves one menu item.
func (s *Service) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

// CreateMenuItem adds a menu item to the catalog.
func (s *Service) CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error) {
	if err := s.validateMenuItemInput(ctx, input); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		ID:         uuid.New(),
		Title:      strings.TrimSpace(input.Title),
		Price:      input.Price,
		Featured:   input.Featured,
		CategoryID: input.CategoryID,
	}
	created, err := s.repo.CreateMenuItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	return created, nil
}

// ReplaceMenuItem overwrites every mutable field of the item.
func (s *Service) ReplaceMenuItem(ctx context.Context, id uuid.UUID, input MenuItemInput) (*models.MenuItem, error) {
	if err := s.validateMenuItemInput(ctx, input); err != nil {
		return nil, err
	}
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Title = strings.TrimSpace(input.Title)
	item.Price = input.Price
	item.Featured = input.Featured
	item.CategoryID = input.CategoryID
	item.Category = nil
	updated, err := s.repo.UpdateMenuItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return updated, nil
}

// PatchMenuItem updates only the provided fields.
func (s *Service) PatchMenuItem(ctx context.Context, id uuid.UUID, patch MenuItemPatch) (*models.MenuItem, error) {
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		item.Title = title
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() || patch.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		item.Price = *patch.Price
	}
	if patch.Featured != nil {
		item.Featured = *patch.Featured
	}
	if patch.CategoryID != nil {
		if err := s.ensureCategoryExists(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = *patch.CategoryID
		item.Category = nil
	}
	updated, err := s.repo.UpdateMenuItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return updated, nil
}

// DeleteMenuItem removes the item from the catalog.
func (s *Service) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetMenuItem(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteMenuItem(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}
	return nil
}

func (s *Service) validateMenuItemInput(ctx context.Context, input MenuItemInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.CategoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	return s.ensureCategoryExists(ctx, input.CategoryID)
}

func (s *Service) ensureCategoryExists(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}
