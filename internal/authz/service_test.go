package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func mustEnforce(t *testing.T, svc *Service, role, obj, act string) bool {
	t.Helper()
	allowed, err := svc.EnforceRole(role, obj, act)
	if err != nil {
		t.Fatalf("enforce %s %s %s failed: %v", role, act, obj, err)
	}
	return allowed
}

func TestBuiltinRoleMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	cases := []struct {
		role  string
		obj   string
		act   string
		allow bool
	}{
		{"customer", "/api/v1/cart", "POST", true},
		{"customer", "/api/v1/cart/:item_id", "DELETE", true},
		{"customer", "/api/v1/orders/:id", "GET", true},
		{"customer", "/api/v1/orders/:id", "PUT", false},
		{"customer", "/api/v1/admin/orders", "GET", false},
		{"support", "/api/v1/orders/:id", "PUT", true},
		{"support", "/api/v1/admin/orders/:id/shipment", "POST", true},
		{"support", "/api/v1/cart", "GET", true},
		{"support", "/api/v1/admin/products", "POST", false},
		{"support", "/api/v1/admin/orders/:id/refund", "POST", false},
		{"operations", "/api/v1/admin/products/:id", "DELETE", true},
		{"operations", "/api/v1/admin/products/:id/stock", "POST", true},
		{"operations", "/api/v1/admin/orders", "GET", false},
		{"admin", "/api/v1/admin/orders/:id/refund", "POST", true},
		{"admin", "/api/v1/admin/authz/roles", "GET", true},
	}
	for _, tc := range cases {
		if got := mustEnforce(t, svc, tc.role, tc.obj, tc.act); got != tc.allow {
			t.Fatalf("%s %s %s: want %v, got %v", tc.role, tc.act, tc.obj, tc.allow, got)
		}
	}
}

func TestEnforceMatchesConcretePath(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if !mustEnforce(t, svc, "customer", "/api/v1/orders/42", "get") {
		t.Fatalf("expected concrete path to match :id pattern")
	}
	if mustEnforce(t, svc, "guest", "/api/v1/orders/42", "GET") {
		t.Fatalf("unknown role must be denied")
	}
}

func TestGrantAndRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("support", "/admin/products", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if !mustEnforce(t, svc, "support", "/api/v1/admin/products", "GET") {
		t.Fatalf("granted policy should allow")
	}
	if err := svc.RevokeRolePolicy("support", "/admin/products", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if mustEnforce(t, svc, "support", "/api/v1/admin/products", "GET") {
		t.Fatalf("revoked policy should deny")
	}
	if err := svc.RevokeRolePolicy("customer", "/cart", "GET"); err == nil {
		t.Fatalf("builtin policy must not be revocable")
	}
}

func TestRolePoliciesIncludeInherited(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	policies, err := svc.GetRolePolicies("support")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	var ownShipment, inheritedCart bool
	for _, p := range policies {
		if p.Subject == "role:support" && p.Object == "/admin/orders/:id/shipment" {
			ownShipment = true
		}
		if p.Subject == "role:customer" && p.Object == "/cart" && p.Action == "POST" {
			inheritedCart = true
		}
	}
	if !ownShipment || !inheritedCart {
		t.Fatalf("unexpected policies: %+v", policies)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	want := []string{"role:admin", "role:customer", "role:operations", "role:support"}
	if strings.Join(roles, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/api/v1":              "/",
		"/api/v1/admin/orders": "/admin/orders",
		"admin/products/:id":   "/admin/products/:id",
		"/health":              "/health",
	}
	for input, want := range cases {
		if got := NormalizeObject(input); got != want {
			t.Fatalf("NormalizeObject(%q) = %q, want %q", input, got, want)
		}
	}
}
