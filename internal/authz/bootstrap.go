package authz

import (
	"fmt"

	"github.com/medcart/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.UserRoleCustomer,
			Policies: []Policy{
				{Object: "/me", Action: "GET"},
				{Object: "/me/password", Action: "PUT"},
				{Object: "/cart", Action: "GET"},
				{Object: "/cart", Action: "POST"},
				{Object: "/cart", Action: "DELETE"},
				{Object: "/cart/:item_id", Action: "PUT"},
				{Object: "/cart/:item_id", Action: "DELETE"},
				{Object: "/orders", Action: "GET"},
				{Object: "/orders", Action: "POST"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/payments/intent", Action: "POST"},
				{Object: "/payments/confirm", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     constants.UserRoleSupport,
			Inherits: []string{constants.UserRoleCustomer},
			Policies: []Policy{
				{Object: "/orders/:id", Action: "PUT"},
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "PUT"},
				{Object: "/admin/orders/:id/shipment", Action: "POST"},
				{Object: "/admin/orders/:id/tracking", Action: "POST"},
				{Object: "/admin/users", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     constants.UserRoleOperations,
			Inherits: []string{constants.UserRoleCustomer},
			Policies: []Policy{
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/products/:id/stock", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     constants.UserRoleAdmin,
			Inherits: []string{constants.UserRoleSupport, constants.UserRoleOperations},
			Policies: []Policy{
				{Object: "/*", Action: "*"},
			},
			Immutable: true,
		},
	}
}

func isBuiltinPolicy(role, object, action string) bool {
	for _, seed := range BuiltinRoleSeeds() {
		seedRole, err := NormalizeRole(seed.Role)
		if err != nil || seedRole != role || !seed.Immutable {
			continue
		}
		for _, policy := range seed.Policies {
			if NormalizeObject(policy.Object) == object && NormalizeAction(policy.Action) == action {
				return true
			}
		}
	}
	return false
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
