package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	authsvc "github.com/littlelemonhq/littlelemon-backend/internal/auth"
	cartsvc "github.com/littlelemonhq/littlelemon-backend/internal/cart"
	"github.com/littlelemonhq/littlelemon-backend/internal/catalog"
	ordersvc "github.com/littlelemonhq/littlelemon-backend/internal/orders"
	"github.com/littlelemonhq/littlelemon-backend/internal/roles"
	"github.com/littlelemonhq/littlelemon-backend/internal/users"
	"github.com/littlelemonhq/littlelemon-backend/pkg/config"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	"github.com/littlelemonhq/littlelemon-backend/pkg/types"
)

var routerTestSchemas = []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS group_memberships (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, role)
);`, `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
  updated_at DATETIME,
  UNIQUE (user_id, menu_item_id)
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

type routerFixture struct {
	conn    *gorm.DB
	handler http.Handler
}

func setupRouter(t *testing.T) *routerFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, schema := range routerTestSchemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	tables := []string{"order_items", "orders", "cart_items", "menu_items", "categories", "group_memberships", "users"}
	for _, table := range tables {
		require.NoError(t, conn.Exec("DELETE FROM "+table).Error)
	}

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "littlelemon", ExpirationMinutes: 60},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}

	dbClient := db.NewWithConn(conn)
	usersRepo := users.NewRepository(conn)
	rolesRepo := roles.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cartsvc.NewRepository(conn)
	ordersRepo := ordersvc.NewRepository(conn)

	rolesService, err := roles.NewService(rolesRepo, usersRepo)
	require.NoError(t, err)
	authService, err := authsvc.NewService(usersRepo, cfg.JWT, cfg.Password)
	require.NoError(t, err)
	catalogService, err := catalog.NewService(catalogRepo)
	require.NoError(t, err)
	cartService, err := cartsvc.NewService(cartRepo, catalogRepo, dbClient)
	require.NoError(t, err)
	ordersService, err := ordersvc.NewService(ordersRepo, cartRepo, rolesService, dbClient)
	require.NoError(t, err)

	handler := NewRouter(
		cfg, nil, nil, nil, dbClient, nil,
		rolesService, authService, catalogService, cartService, ordersService,
	)

	return &routerFixture{conn: conn, handler: handler}
}

func (f *routerFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) types.SuccessEnvelope {
	t.Helper()
	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func (f *routerFixture) registerAndLogin(t *testing.T, username string) (uuid.UUID, string) {
	t.Helper()

	registerBody := fmt.Sprintf(
		`{"username":%q,"email":"%s@example.com","password":"hunter2-secret"}`,
		username, username,
	)
	resp := f.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	loginBody := fmt.Sprintf(`{"username":%q,"password":"hunter2-secret"}`, username)
	resp = f.do(t, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				ID uuid.UUID `json:"id"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload.Data.Token)

	return payload.Data.User.ID, payload.Data.Token
}

func (f *routerFixture) grantRole(t *testing.T, userID uuid.UUID, role enums.Role) {
	t.Helper()
	membership := &models.GroupMembership{ID: uuid.New(), UserID: userID, Role: role}
	require.NoError(t, f.conn.Create(membership).Error)
}

func TestRouterPublicCatalogReads(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodGet, "/api/v1/category", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, "/api/v1/menu-items", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRouterRejectsUnauthenticatedPrivateRoutes(t *testing.T) {
	f := setupRouter(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/cart/menu-items"},
		{http.MethodPost, "/api/v1/category"},
		{http.MethodGet, "/api/v1/groups/manager/users"},
	} {
		resp := f.do(t, route.method, route.path, "", "")
		assert.Equalf(t, http.StatusUnauthorized, resp.Code, "%s %s", route.method, route.path)
	}
}

func TestRouterManagerGateOnCatalogMutation(t *testing.T) {
	f := setupRouter(t)

	managerID, managerToken := f.registerAndLogin(t, "mgr-"+uuid.NewString()[:8])
	f.grantRole(t, managerID, enums.RoleManager)
	_, customerToken := f.registerAndLogin(t, "cust-"+uuid.NewString()[:8])

	resp := f.do(t, http.MethodPost, "/api/v1/category", customerToken, `{"title":"Drinks"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodPost, "/api/v1/category", managerToken, `{"title":"Drinks"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, "Category created", envelope.Message)
}

func TestRouterCartToOrderFlow(t *testing.T) {
	f := setupRouter(t)

	managerID, managerToken := f.registerAndLogin(t, "mgr-"+uuid.NewString()[:8])
	f.grantRole(t, managerID, enums.RoleManager)
	_, customerToken := f.registerAndLogin(t, "cust-"+uuid.NewString()[:8])

	resp := f.do(t, http.MethodPost, "/api/v1/category", managerToken, `{"title":"Mains"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var categoryPayload struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categoryPayload))

	itemBody := fmt.Sprintf(
		`{"title":"Lemon Pasta","price":"12.50","featured":true,"category_id":%q}`,
		categoryPayload.Data.ID,
	)
	resp = f.do(t, http.MethodPost, "/api/v1/menu-items", managerToken, itemBody)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var itemPayload struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&itemPayload))

	cartBody := fmt.Sprintf(`{"menu_item_id":%q,"quantity":2}`, itemPayload.Data.ID)
	resp = f.do(t, http.MethodPost, "/api/v1/cart/menu-items", customerToken, cartBody)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodPost, "/api/v1/orders", customerToken, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, "Order created", envelope.Message)

	// cart converted, so a second checkout finds nothing
	resp = f.do(t, http.MethodPost, "/api/v1/orders", customerToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodGet, "/api/v1/orders", customerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var listPayload struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listPayload))
	assert.Len(t, listPayload.Data, 1)
}

func TestRouterOrderVisibilityIsScoped(t *testing.T) {
	f := setupRouter(t)

	managerID, managerToken := f.registerAndLogin(t, "mgr-"+uuid.NewString()[:8])
	f.grantRole(t, managerID, enums.RoleManager)
	_, ownerToken := f.registerAndLogin(t, "owner-"+uuid.NewString()[:8])
	_, strangerToken := f.registerAndLogin(t, "str-"+uuid.NewString()[:8])

	resp := f.do(t, http.MethodPost, "/api/v1/category", managerToken, `{"title":"Sides"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	var categoryPayload struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categoryPayload))

	itemBody := fmt.Sprintf(`{"title":"Bread","price":"3.00","category_id":%q}`, categoryPayload.Data.ID)
	resp = f.do(t, http.MethodPost, "/api/v1/menu-items", managerToken, itemBody)
	require.Equal(t, http.StatusCreated, resp.Code)
	var itemPayload struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&itemPayload))

	cartBody := fmt.Sprintf(`{"menu_item_id":%q}`, itemPayload.Data.ID)
	resp = f.do(t, http.MethodPost, "/api/v1/cart/menu-items", ownerToken, cartBody)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = f.do(t, http.MethodPost, "/api/v1/orders", ownerToken, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	var orderPayload struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orderPayload))

	orderPath := "/api/v1/orders/" + orderPayload.Data.ID.String()

	resp = f.do(t, http.MethodGet, orderPath, ownerToken, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, orderPath, strangerToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = f.do(t, http.MethodGet, orderPath, managerToken, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	// only managers may replace or delete
	resp = f.do(t, http.MethodPut, orderPath, ownerToken, `{"status":"delivered"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodDelete, orderPath, ownerToken, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodDelete, orderPath, managerToken, "")
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestRouterHealthLive(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-LittleLemon-Env"))
}
