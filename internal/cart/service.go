package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo interface {
	WithTx(tx *gorm.DB) *Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error)
	CreateLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error)
	UpdateLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type menuItemFinder interface {
	FindMenuItemByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddInput carries the fields of an add-to-cart request.
type AddInput struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// Service owns the per-user cart.
type Service struct {
	repo    repo
	catalog menuItemFinder
	tx      txRunner
}

// NewService wires the cart service with its dependencies.
func NewService(repository repo, catalog menuItemFinder, tx txRunner) (*Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("menu item finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repository, catalog: catalog, tx: tx}, nil
}

// View returns the caller's cart lines.
func (s *Service) View(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return lines, nil
}

// Add puts a menu item in the cart, snapshotting the current catalog price.
// Adding an item already in the cart merges quantities into the existing line.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, input AddInput) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu_item_id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.catalog.FindMenuItemByID(ctx, input.MenuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}

	var result *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindLine(ctx, userID, item.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		if existing != nil {
			existing.Quantity += input.Quantity
			existing.Price = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity)))
			updated, err := repo.UpdateLine(ctx, existing)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
			result = updated
			return nil
		}

		line := &models.CartItem{
			ID:         uuid.New(),
			UserID:     userID,
			MenuItemID: item.ID,
			Quantity:   input.Quantity,
			UnitPrice:  item.Price,
			Price:      item.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
		}
		created, err := repo.CreateLine(ctx, line)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart line changed concurrently, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.MenuItem = item
	return result, nil
}

// Clear wipes the caller's cart. Clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
