package admin

import (
	"strings"

	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateUserRequest 后台修改用户请求
type UpdateUserRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// GetAdminUsers 用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	users, total, err := h.UserAdminService.List(service.UserQuery{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// UpdateAdminUser 修改用户角色或状态
func (h *Handler) UpdateAdminUser(c *gin.Context) {
	userID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	if userID == currentUserID(c) && req.Role != nil {
		handlershared.RespondErrorWithKind(c, response.CodeBadRequest, response.KindValidation, "error.validation",
			gin.H{"field": "role"}, nil, "role", "cannot change your own role")
		return
	}
	user, err := h.UserAdminService.Update(c.Request.Context(), userID, service.UpdateUserInput{
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_user_updated",
		"operator_id", currentUserID(c),
		"user_id", user.ID,
		"role", user.Role,
		"status", user.Status,
	)
	response.Success(c, user)
}
