package admin

import "github.com/medcart/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API，角色权限由 authz 中间件校验。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
