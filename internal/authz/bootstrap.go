package authz

import "fmt"

// RoleSeed 内置角色定义
type RoleSeed struct {
	Role        string
	Description string
	Inherits    []string
	Policies    []Policy
}

// RoleView 角色展示
type RoleView struct {
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Inherits    []string `json:"inherits"`
	Policies    []Policy `json:"policies"`
}

// BuiltinRoleSeeds 内置角色矩阵
// 超级管理员不走 casbin，由 Admin.IsSuper 直接放行。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:        "readonly_auditor",
			Description: "read every admin page and export reports",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:        "dispatcher",
			Description: "manage customers and delivery orders",
			Inherits:    []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/customers", Action: "POST"},
				{Object: "/admin/customers/:id", Action: "PUT"},
				{Object: "/admin/customers/:id/status", Action: "PATCH"},
				{Object: "/admin/orders/manual", Action: "POST"},
				{Object: "/admin/orders/manual/validate", Action: "POST"},
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
				{Object: "/admin/orders/batch-status", Action: "PATCH"},
			},
		},
		{
			Role:        "cashier",
			Description: "issue tokens and record cash payments",
			Inherits:    []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/token-issues", Action: "POST"},
				{Object: "/admin/token-issues/:id", Action: "DELETE"},
				{Object: "/admin/token-issues/:id/cash-payment", Action: "POST"},
				{Object: "/admin/token-balances/adjust", Action: "POST"},
				{Object: "/admin/token-balances/audit", Action: "POST"},
			},
		},
	}
}

// IsBuiltinRole 判断是否内置角色
func IsBuiltinRole(name string) bool {
	for _, seed := range BuiltinRoleSeeds() {
		if seed.Role == name {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 写入内置角色继承与策略，已存在的规则跳过
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		role := roleSubject(seed.Role)
		for _, parent := range seed.Inherits {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleSubject(parent)); err != nil {
				return fmt.Errorf("link role %s to %s failed: %w", seed.Role, parent, err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required for %s", seed.Role)
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy for %s failed: %w", seed.Role, err)
			}
		}
	}
	return nil
}
