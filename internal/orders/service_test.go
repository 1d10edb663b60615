package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/internal/cart"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/littlelemonhq/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubRoleChecker struct {
	crew map[uuid.UUID]bool
}

func (s *stubRoleChecker) HasRole(_ context.Context, userID uuid.UUID, role enums.Role) (bool, error) {
	if role == enums.RoleDeliveryCrew {
		return s.crew[userID], nil
	}
	return false, nil
}

type ordersFixture struct {
	conn  *gorm.DB
	svc   *Service
	roles *stubRoleChecker
}

func setupOrdersTest(t *testing.T) *ordersFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{`
CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  price NUMERIC NOT NULL,
  featured INTEGER NOT NULL DEFAULT 0,
  category_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  delivery_crew_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  total NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_id, menu_item_id)
);`}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	for _, table := range []string{"order_items", "orders", "cart_items", "menu_items"} {
		require.NoError(t, conn.Exec("DELETE FROM "+table).Error)
	}

	roles := &stubRoleChecker{crew: make(map[uuid.UUID]bool)}
	svc, err := NewService(NewRepository(conn), cart.NewRepository(conn), roles, db.NewWithConn(conn))
	require.NoError(t, err)

	return &ordersFixture{conn: conn, svc: svc, roles: roles}
}

func (f *ordersFixture) seedMenuItem(t *testing.T, title, price string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ID:         uuid.New(),
		Title:      title,
		Price:      decimal.RequireFromString(price),
		CategoryID: uuid.New(),
	}
	require.NoError(t, f.conn.Create(item).Error)
	return item
}

func (f *ordersFixture) seedCartLine(t *testing.T, userID uuid.UUID, item *models.MenuItem, qty int) {
	t.Helper()
	line := &models.CartItem{
		ID:         uuid.New(),
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   qty,
		UnitPrice:  item.Price,
		Price:      item.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
	require.NoError(t, f.conn.Create(line).Error)
}

func TestPlaceOrderAggregatesAndClears(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()
	customer := uuid.New()

	itemA := f.seedMenuItem(t, "Greek salad", "10.00")
	itemB := f.seedMenuItem(t, "Lemonade", "5.00")
	f.seedCartLine(t, customer, itemA, 2)
	f.seedCartLine(t, customer, itemB, 1)

	order, err := f.svc.PlaceOrder(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Nil(t, order.DeliveryCrewID)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("25.00")), "total %s", order.Total)
	require.Len(t, order.Items, 2)

	byItem := map[uuid.UUID]models.OrderItem{}
	itemTotal := decimal.Zero
	for _, item := range order.Items {
		byItem[item.MenuItemID] = item
		itemTotal = itemTotal.Add(item.Price)
		assert.True(t, item.Price.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}
	assert.True(t, order.Total.Equal(itemTotal))
	assert.Equal(t, 2, byItem[itemA.ID].Quantity)
	assert.True(t, byItem[itemA.ID].Price.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, 1, byItem[itemB.ID].Quantity)
	assert.True(t, byItem[itemB.ID].Price.Equal(decimal.RequireFromString("5.00")))

	var remaining int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Where("user_id = ?", customer).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestPlaceOrderMergesDuplicateCartLines(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()
	customer := uuid.New()

	item := f.seedMenuItem(t, "Bruschetta", "10.00")
	// two rows for the same item, as two separate add calls could produce
	f.seedCartLine(t, customer, item, 1)
	line := &models.CartItem{
		ID:         uuid.New(),
		UserID:     customer,
		MenuItemID: item.ID,
		Quantity:   1,
		UnitPrice:  item.Price,
		Price:      item.Price,
	}
	require.NoError(t, f.conn.Create(line).Error)

	order, err := f.svc.PlaceOrder(ctx, customer)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("20.00")))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := setupOrdersTest(t)
	customer := uuid.New()

	_, err := f.svc.PlaceOrder(context.Background(), customer)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "cart is empty", typed.Message())

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func placeOrderFor(t *testing.T, f *ordersFixture, userID uuid.UUID, title, price string, qty int) *models.Order {
	t.Helper()
	item := f.seedMenuItem(t, title, price)
	f.seedCartLine(t, userID, item, qty)
	order, err := f.svc.PlaceOrder(context.Background(), userID)
	require.NoError(t, err)
	return order
}

func TestListOrdersRoleScoping(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	crew := uuid.New()
	manager := uuid.New()

	aliceOrder := placeOrderFor(t, f, alice, "Salad", "10.00", 1)
	bobOrder := placeOrderFor(t, f, bob, "Pasta", "12.00", 1)

	// assign bob's order to the crew member
	require.NoError(t, f.conn.Model(&models.Order{}).
		Where("id = ?", bobOrder.ID).
		Update("delivery_crew_id", crew).Error)

	all, err := f.svc.ListOrders(ctx, manager, enums.RoleManager, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.ListOrders(ctx, alice, enums.RoleCustomer, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, aliceOrder.ID, own[0].ID)

	assigned, err := f.svc.ListOrders(ctx, crew, enums.RoleDeliveryCrew, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, bobOrder.ID, assigned[0].ID)
}

func TestGetOrderScopedLookup(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	crew := uuid.New()
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)

	got, err := f.svc.GetOrder(ctx, alice, enums.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].MenuItem)

	// not assigned to this crew member: NotFound, not Forbidden
	_, err = f.svc.GetOrder(ctx, crew, enums.RoleDeliveryCrew, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	stranger := uuid.New()
	_, err = f.svc.GetOrder(ctx, stranger, enums.RoleCustomer, order.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestReplaceOrderManagerOnly(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	crew := uuid.New()
	manager := uuid.New()
	f.roles.crew[crew] = true
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)

	_, err := f.svc.ReplaceOrder(ctx, alice, enums.RoleCustomer, order.ID, ReplaceInput{Status: enums.OrderStatusPending})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	assert.Equal(t, "Permission denied", typed.Message())

	updated, err := f.svc.ReplaceOrder(ctx, manager, enums.RoleManager, order.ID, ReplaceInput{
		Status:         enums.OrderStatusPending,
		DeliveryCrewID: &crew,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveryCrewID)
	assert.Equal(t, crew, *updated.DeliveryCrewID)

	// assignee must actually be delivery crew
	notCrew := uuid.New()
	_, err = f.svc.ReplaceOrder(ctx, manager, enums.RoleManager, order.ID, ReplaceInput{
		Status:         enums.OrderStatusPending,
		DeliveryCrewID: &notCrew,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestPatchOrderAsManager(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	crew := uuid.New()
	manager := uuid.New()
	f.roles.crew[crew] = true
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)

	updated, err := f.svc.PatchOrder(ctx, manager, enums.RoleManager, order.ID, PatchInput{
		DeliveryCrewID:  &crew,
		SetDeliveryCrew: true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveryCrewID)
	assert.Equal(t, crew, *updated.DeliveryCrewID)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)

	delivered := enums.OrderStatusDelivered
	updated, err = f.svc.PatchOrder(ctx, manager, enums.RoleManager, order.ID, PatchInput{Status: &delivered})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)

	// delivered is terminal
	pending := enums.OrderStatusPending
	_, err = f.svc.PatchOrder(ctx, manager, enums.RoleManager, order.ID, PatchInput{Status: &pending})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.svc.PatchOrder(ctx, manager, enums.RoleManager, order.ID, PatchInput{})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestPatchOrderAsCrew(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	crew := uuid.New()
	f.roles.crew[crew] = true
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)

	delivered := enums.OrderStatusDelivered

	// not yet assigned: scoped NotFound
	_, err := f.svc.PatchOrder(ctx, crew, enums.RoleDeliveryCrew, order.ID, PatchInput{Status: &delivered})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, f.conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("delivery_crew_id", crew).Error)

	// missing status
	_, err = f.svc.PatchOrder(ctx, crew, enums.RoleDeliveryCrew, order.ID, PatchInput{})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "status field is required", typed.Message())

	// crew cannot touch the assignment
	_, err = f.svc.PatchOrder(ctx, crew, enums.RoleDeliveryCrew, order.ID, PatchInput{
		Status:          &delivered,
		DeliveryCrewID:  &crew,
		SetDeliveryCrew: true,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	updated, err := f.svc.PatchOrder(ctx, crew, enums.RoleDeliveryCrew, order.ID, PatchInput{Status: &delivered})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveryCrewID)
	assert.Equal(t, crew, *updated.DeliveryCrewID)
}

// interleavedTxRunner lets a test act as a concurrent writer that lands just
// before the service's update transaction reads the row.
type interleavedTxRunner struct {
	inner  *db.Client
	before func(tx *gorm.DB) error
}

func (r *interleavedTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.inner.WithTx(ctx, func(tx *gorm.DB) error {
		if r.before != nil {
			if err := r.before(tx); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

func TestPatchOrderDoesNotRevertConcurrentDelivery(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	manager := uuid.New()
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)

	// crew delivers the order while the manager's pending-status patch is in
	// flight; the patch must see the fresh row and refuse the revert
	runner := &interleavedTxRunner{
		inner: db.NewWithConn(f.conn),
		before: func(tx *gorm.DB) error {
			return tx.Model(&models.Order{}).
				Where("id = ?", order.ID).
				Update("status", enums.OrderStatusDelivered).Error
		},
	}
	svc, err := NewService(NewRepository(f.conn), cart.NewRepository(f.conn), f.roles, runner)
	require.NoError(t, err)

	pending := enums.OrderStatusPending
	_, err = svc.PatchOrder(ctx, manager, enums.RoleManager, order.ID, PatchInput{Status: &pending})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	var status enums.OrderStatus
	require.NoError(t, f.conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Pluck("status", &status).Error)
	assert.Equal(t, enums.OrderStatusDelivered, status)
}

func TestUpdateFieldsIfStatusGuardsStaleWrites(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)
	repo := NewRepository(f.conn)

	// expected status no longer matches: nothing is written
	affected, err := repo.UpdateFieldsIfStatus(ctx, order.ID, enums.OrderStatusDelivered,
		map[string]any{"status": enums.OrderStatusPending})
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.UpdateFieldsIfStatus(ctx, order.ID, enums.OrderStatusPending,
		map[string]any{"status": enums.OrderStatusDelivered})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	var status enums.OrderStatus
	require.NoError(t, f.conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Pluck("status", &status).Error)
	assert.Equal(t, enums.OrderStatusDelivered, status)
}

func TestDeleteOrderCascades(t *testing.T) {
	f := setupOrdersTest(t)
	ctx := context.Background()

	alice := uuid.New()
	manager := uuid.New()
	order := placeOrderFor(t, f, alice, "Salad", "10.00", 1)

	err := f.svc.DeleteOrder(ctx, alice, enums.RoleCustomer, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	require.NoError(t, f.svc.DeleteOrder(ctx, manager, enums.RoleManager, order.ID))

	var itemCount int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	err = f.svc.DeleteOrder(ctx, manager, enums.RoleManager, order.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
