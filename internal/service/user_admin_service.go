package service

import (
	"context"
	"strings"

	"github.com/medcart/internal/cache"
	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"
)

// UserAdminService 后台用户管理服务
type UserAdminService struct {
	userRepo repository.UserRepository
}

// NewUserAdminService 创建后台用户管理服务
func NewUserAdminService(userRepo repository.UserRepository) *UserAdminService {
	return &UserAdminService{userRepo: userRepo}
}

// UserQuery 用户列表查询参数
type UserQuery struct {
	Page     int
	PageSize int
	Keyword  string
	Role     string
	Status   string
}

// UpdateUserInput 后台修改用户输入
type UpdateUserInput struct {
	Role   *string
	Status *string
}

// IsValidUserRole 判断角色是否合法
func IsValidUserRole(role string) bool {
	switch role {
	case constants.UserRoleCustomer, constants.UserRoleSupport, constants.UserRoleOperations, constants.UserRoleAdmin:
		return true
	}
	return false
}

// List 用户列表
func (s *UserAdminService) List(query UserQuery) ([]models.User, int64, error) {
	role := strings.ToLower(strings.TrimSpace(query.Role))
	if role != "" && !IsValidUserRole(role) {
		return nil, 0, newValidationError("role", "unknown role")
	}
	return s.userRepo.List(repository.UserListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Keyword:  strings.TrimSpace(query.Keyword),
		Role:     role,
		Status:   strings.ToLower(strings.TrimSpace(query.Status)),
	})
}

// Update 修改用户角色或状态（变更后旧 Token 失效）
func (s *UserAdminService) Update(ctx context.Context, userID uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	updates := map[string]interface{}{}
	if input.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*input.Role))
		if !IsValidUserRole(role) {
			return nil, newValidationError("role", "unknown role")
		}
		if role != user.Role {
			updates["role"] = role
		}
	}
	if input.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*input.Status))
		if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
			return nil, newValidationError("status", "must be active or disabled")
		}
		if status != user.Status {
			updates["status"] = status
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.userRepo.UpdateFields(userID, updates); err != nil {
		return nil, err
	}
	if err := s.userRepo.BumpTokenVersion(userID); err != nil {
		return nil, err
	}
	if err := cache.DelUserAuthState(ctx, userID); err != nil {
		logger.Warnw("user_auth_state_invalidate_failed", "user_id", userID, "error", err)
	}
	logger.Infow("user_updated_by_admin", "user_id", userID, "updates", updates)
	return s.userRepo.GetByID(userID)
}
