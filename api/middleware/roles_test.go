package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
)

type stubResolver struct {
	role enums.Role
	err  error
}

func (s stubResolver) Resolve(ctx context.Context, userID uuid.UUID) (enums.Role, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.role, nil
}

func TestResolveRoleRequiresIdentity(t *testing.T) {
	handler := ResolveRole(stubResolver{role: enums.RoleCustomer}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestResolveRoleStoresResolvedRole(t *testing.T) {
	var captured enums.Role
	handler := ResolveRole(stubResolver{role: enums.RoleManager}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured != enums.RoleManager {
		t.Fatalf("expected Manager role in context, got %q", captured)
	}
}

func TestRequireRoleRejectsMismatch(t *testing.T) {
	handler := RequireRole(enums.RoleManager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithRole(req.Context(), enums.RoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireRoleAllowsMatch(t *testing.T) {
	handler := RequireRole(enums.RoleManager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithRole(req.Context(), enums.RoleManager))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
