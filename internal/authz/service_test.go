package authz

import (
	"errors"
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
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	return svc
}

func TestBuiltinRolesMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{"dispatcher"}); err != nil {
		t.Fatalf("set dispatcher failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"cashier"}); err != nil {
		t.Fatalf("set cashier failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("set auditor failed: %v", err)
	}

	cases := []struct {
		admin  uint
		obj    string
		act    string
		expect bool
	}{
		{1, "/api/v1/admin/orders/12/status", "patch", true},
		{1, "/api/v1/admin/orders/batch-status", "PATCH", true},
		{1, "/api/v1/admin/token-issues/3", "DELETE", false},
		{1, "/api/v1/admin/customers", "GET", true},
		{2, "/api/v1/admin/token-issues/3/cash-payment", "POST", true},
		{2, "/api/v1/admin/customers/4/status", "PATCH", false},
		{3, "/api/v1/admin/token-balances", "GET", true},
		{3, "/api/v1/admin/orders/manual", "POST", false},
		{9, "/api/v1/admin/customers", "GET", false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceAdmin(tc.admin, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce failed: %v", err)
		}
		if allow != tc.expect {
			t.Fatalf("admin %d %s %s: want %v got %v", tc.admin, tc.act, tc.obj, tc.expect, allow)
		}
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(2, []string{"dispatcher", "role:cashier", "dispatcher"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "cashier" || roles[1] != "dispatcher" {
		t.Fatalf("unexpected roles: %v", roles)
	}

	if err := svc.SetAdminRoles(2, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("override roles failed: %v", err)
	}
	roles, err = svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "readonly_auditor" {
		t.Fatalf("roles want [readonly_auditor], got %v", roles)
	}
}

func TestSetAdminRolesRejectsUnknown(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(4, []string{"superuser"}); !errors.Is(err, ErrRoleUnknown) {
		t.Fatalf("expected ErrRoleUnknown, got %v", err)
	}
	if err := svc.SetAdminRoles(0, nil); !errors.Is(err, ErrAdminMissing) {
		t.Fatalf("expected ErrAdminMissing, got %v", err)
	}
}

func TestListRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(roles))
	}
	for _, role := range roles {
		if len(role.Policies) == 0 {
			t.Fatalf("role %s has no policies", role.Role)
		}
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/api/v1":                 "/",
		"/api/v1/admin/orders":    "/admin/orders",
		"admin/customers":         "/admin/customers",
		"/admin/token-issues/:id": "/admin/token-issues/:id",
	}
	for raw, want := range cases {
		if got := NormalizeObject(raw); got != want {
			t.Fatalf("NormalizeObject(%q) = %q, want %q", raw, got, want)
		}
	}
}
