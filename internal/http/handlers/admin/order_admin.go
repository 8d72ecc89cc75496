package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminOrders 全部订单列表
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	query := service.OrderQuery{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			handlershared.RespondErrorWithKind(c, response.CodeBadRequest, response.KindValidation, "error.validation",
				gin.H{"field": "user_id"}, nil, "user_id", "must be a positive integer")
			return
		}
		query.UserID = uint(userID)
	}

	orders, total, err := h.OrderStatusService.ListAllOrders(query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetAdminOrder 订单详情
func (h *Handler) GetAdminOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderStatusService.GetOrder(service.OrderActor{UserID: currentUserID(c), CanViewAll: true}, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateAdminOrderStatus 后台更新订单状态
func (h *Handler) UpdateAdminOrderStatus(c *gin.Context) {
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
	requestLog(c).Infow("admin_order_status_updated",
		"operator_id", currentUserID(c),
		"order_id", order.ID,
		"status", order.Status,
	)
	response.Success(c, order)
}

// BookAdminOrderShipment 同步预约物流并回写运单号
func (h *Handler) BookAdminOrderShipment(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.ShipmentService.BookForOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// RefreshAdminOrderTracking 拉取物流轨迹刷新订单状态
func (h *Handler) RefreshAdminOrderTracking(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.ShipmentService.RefreshTracking(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// RefundAdminOrder 发起网关退款
func (h *Handler) RefundAdminOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.PaymentService.RefundOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_refunded",
		"operator_id", currentUserID(c),
		"order_id", order.ID,
		"payment_id", order.PaymentID,
	)
	response.Success(c, order)
}
