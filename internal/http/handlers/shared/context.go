package shared

import (
	"strconv"
	"strings"

	"github.com/medcart/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextUserIDKey    = "user_id"
	ContextUserRoleKey  = "user_role"
	ContextUserEmailKey = "user_email"
	ContextRequestIDKey = "request_id"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// GetUserID 读取当前登录用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUintWithKeys(c, ContextUserIDKey, "error.unauthorized", "error.internal_error")
}

// GetUserRole 读取当前登录用户角色
func GetUserRole(c *gin.Context) string {
	value, ok := c.Get(ContextUserRoleKey)
	if !ok {
		return ""
	}
	role, _ := value.(string)
	return role
}

// ParseUintParam 解析路径参数中的正整数 ID
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondErrorWithKind(c, response.CodeBadRequest, response.KindValidation, "error.validation", gin.H{"field": name}, nil, name, "must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
