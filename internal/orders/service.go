package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/internal/cart"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/littlelemonhq/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo interface {
	WithTx(tx *gorm.DB) *Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	ListAll(ctx context.Context, page pagination.Params) ([]models.Order, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error)
	ListByAssignee(ctx context.Context, crewID uuid.UUID, page pagination.Params) ([]models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateFieldsIfStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cartStore interface {
	WithTx(tx *gorm.DB) *cart.Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type roleChecker interface {
	HasRole(ctx context.Context, userID uuid.UUID, role enums.Role) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReplaceInput carries the full set of mutable order fields.
type ReplaceInput struct {
	Status         enums.OrderStatus
	DeliveryCrewID *uuid.UUID
}

// PatchInput carries the optional fields of a partial order update.
// SetDeliveryCrew distinguishes "leave assignment alone" from "unassign".
type PatchInput struct {
	Status          *enums.OrderStatus
	DeliveryCrewID  *uuid.UUID
	SetDeliveryCrew bool
}

// Service is the order engine: it converts carts into orders and owns the
// status state machine and the role-scoped visibility rules.
type Service struct {
	repo  repo
	carts cartStore
	roles roleChecker
	tx    txRunner
}

// NewService wires the order engine with its dependencies.
func NewService(repository repo, carts cartStore, roles roleChecker, tx txRunner) (*Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repository, carts: carts, roles: roles, tx: tx}, nil
}

// PlaceOrder converts the caller's cart into an order. Lines referencing the
// same menu item are merged into one order item. The order insert, item
// inserts and cart clear commit together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		lines, err := carts.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		orderID := uuid.New()
		items := aggregateLines(orderID, lines)
		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.Price)
		}

		order := &models.Order{
			ID:     orderID,
			UserID: userID,
			Status: enums.OrderStatusPending,
			Total:  total,
			Items:  items,
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := carts.DeleteByUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// aggregateLines groups cart lines by menu item, summing quantities. All
// lines for an item share the same snapshot unit price.
func aggregateLines(orderID uuid.UUID, lines []models.CartItem) []models.OrderItem {
	grouped := make(map[uuid.UUID]*models.OrderItem)
	keys := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if item, ok := grouped[line.MenuItemID]; ok {
			item.Quantity += line.Quantity
			continue
		}
		grouped[line.MenuItemID] = &models.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		}
		keys = append(keys, line.MenuItemID)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	items := make([]models.OrderItem, 0, len(keys))
	for _, key := range keys {
		item := grouped[key]
		item.Price = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, *item)
	}
	return items
}

// ListOrders returns the orders visible to the caller under their role.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, role enums.Role, page pagination.Params) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	var (
		orders []models.Order
		err    error
	)
	switch role {
	case enums.RoleManager:
		orders, err = s.repo.ListAll(ctx, page)
	case enums.RoleDeliveryCrew:
		orders, err = s.repo.ListByAssignee(ctx, userID, page)
	default:
		orders, err = s.repo.ListByOwner(ctx, userID, page)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// GetOrder fetches one order as a scoped lookup: an order outside the
// caller's visibility reads as NotFound, never Forbidden, so its existence
// is not confirmed.
func (s *Service) GetOrder(ctx context.Context, userID uuid.UUID, role enums.Role, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(order, userID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func visibleTo(order *models.Order, userID uuid.UUID, role enums.Role) bool {
	switch role {
	case enums.RoleManager:
		return true
	case enums.RoleDeliveryCrew:
		return order.DeliveryCrewID != nil && *order.DeliveryCrewID == userID
	default:
		return order.UserID == userID
	}
}

// ReplaceOrder overwrites every mutable order field. Manager only.
func (s *Service) ReplaceOrder(ctx context.Context, userID uuid.UUID, role enums.Role, orderID uuid.UUID, input ReplaceInput) (*models.Order, error) {
	if role != enums.RoleManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Permission denied")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status field is required")
	}
	if input.DeliveryCrewID != nil {
		if err := s.ensureCrewMember(ctx, *input.DeliveryCrewID); err != nil {
			return nil, err
		}
	}

	return s.mutateOrder(ctx, orderID,
		func(order *models.Order) error {
			if !order.Status.CanTransition(input.Status) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("cannot transition order from %s to %s", order.Status, input.Status))
			}
			return nil
		},
		map[string]any{
			"status":           input.Status,
			"delivery_crew_id": input.DeliveryCrewID,
		})
}

// PatchOrder applies a partial update. Managers may patch any mutable field;
// delivery crew may patch only the status of orders assigned to them.
func (s *Service) PatchOrder(ctx context.Context, userID uuid.UUID, role enums.Role, orderID uuid.UUID, input PatchInput) (*models.Order, error) {
	switch role {
	case enums.RoleManager:
		return s.managerPatch(ctx, orderID, input)
	case enums.RoleDeliveryCrew:
		return s.crewPatch(ctx, userID, orderID, input)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Permission denied")
	}
}

func (s *Service) managerPatch(ctx context.Context, orderID uuid.UUID, input PatchInput) (*models.Order, error) {
	fields := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *input.Status))
		}
		fields["status"] = *input.Status
	}
	if input.SetDeliveryCrew {
		if input.DeliveryCrewID != nil {
			if err := s.ensureCrewMember(ctx, *input.DeliveryCrewID); err != nil {
				return nil, err
			}
		}
		fields["delivery_crew_id"] = input.DeliveryCrewID
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	return s.mutateOrder(ctx, orderID,
		func(order *models.Order) error {
			if input.Status != nil && !order.Status.CanTransition(*input.Status) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("cannot transition order from %s to %s", order.Status, *input.Status))
			}
			return nil
		},
		fields)
}

func (s *Service) crewPatch(ctx context.Context, userID, orderID uuid.UUID, input PatchInput) (*models.Order, error) {
	if input.SetDeliveryCrew {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Permission denied")
	}
	if input.Status == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status field is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *input.Status))
	}

	return s.mutateOrder(ctx, orderID,
		func(order *models.Order) error {
			if order.DeliveryCrewID == nil || *order.DeliveryCrewID != userID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			if !order.Status.CanTransition(*input.Status) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("cannot transition order from %s to %s", order.Status, *input.Status))
			}
			return nil
		},
		map[string]any{"status": *input.Status})
}

// DeleteOrder removes the order and its items. Manager only.
func (s *Service) DeleteOrder(ctx context.Context, userID uuid.UUID, role enums.Role, orderID uuid.UUID) error {
	if role != enums.RoleManager {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Permission denied")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, order.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *Service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// mutateOrder runs an order update as one transaction: it re-reads the row,
// applies check against the fresh state, then writes guarded on the status it
// just read. A concurrent status change between the in-transaction read and
// the write matches zero rows and surfaces as Conflict, so a delivered order
// can never slide back to pending.
func (s *Service) mutateOrder(ctx context.Context, orderID uuid.UUID, check func(order *models.Order) error, fields map[string]any) (*models.Order, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := check(order); err != nil {
			return err
		}
		affected, err := txRepo.UpdateFieldsIfStatus(ctx, orderID, order.Status, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently, retry")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return s.loadOrder(ctx, orderID)
}

func (s *Service) ensureCrewMember(ctx context.Context, crewID uuid.UUID) error {
	ok, err := s.roles.HasRole(ctx, crewID, enums.RoleDeliveryCrew)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "assignee is not a delivery crew member")
	}
	return nil
}
