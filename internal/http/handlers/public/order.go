package public

import (
	"strings"

	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required,max=1000"`
	BillingAddress  string `json:"billing_address" binding:"omitempty,max=1000"`
	Phone           string `json:"phone" binding:"required,phone"`
	Notes           string `json:"notes" binding:"omitempty,max=2000"`
}

func (r CreateOrderRequest) toServiceInput() service.CreateOrderInput {
	return service.CreateOrderInput{
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		Phone:           r.Phone,
		Notes:           r.Notes,
	}
}

// CreateOrder 购物车结算下单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}

	order, err := h.OrderService.CreateOrder(uid, req.toServiceInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_id":     order.ID,
		"order_no":     order.OrderNo,
		"total_amount": order.TotalAmount,
	})
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	query := service.OrderQuery{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
	}
	orders, total, err := h.OrderStatusService.ListOrdersForUser(uid, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情（具备后台订单查看权限的角色可查看全部订单）
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	actor := service.OrderActor{UserID: uid, CanViewAll: h.canViewAllOrders(c)}
	order, err := h.OrderStatusService.GetOrder(actor, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 更新订单状态（权限由 authz 中间件校验）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req handlershared.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	order, err := h.OrderStatusService.UpdateStatus(orderID, req.ToServiceInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

func (h *Handler) canViewAllOrders(c *gin.Context) bool {
	if h.AuthzService == nil {
		return false
	}
	role := handlershared.GetUserRole(c)
	if role == "" {
		return false
	}
	allowed, err := h.AuthzService.EnforceRole(role, "/admin/orders/:id", "GET")
	if err != nil {
		handlershared.RequestLog(c).Warnw("order_view_scope_check_failed", "role", role, "error", err)
		return false
	}
	return allowed
}
