package public

import (
	"io"

	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// razorpaySignatureHeader Razorpay Webhook 签名头
const razorpaySignatureHeader = "X-Razorpay-Signature"

// maxWebhookBodyBytes Webhook 请求体上限
const maxWebhookBodyBytes = 1 << 20

// ConfirmPaymentRequest 支付确认请求
type ConfirmPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
	CreateOrderRequest
}

// CreatePaymentIntent 基于当前购物车创建网关订单
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	intent, err := h.PaymentService.CreateCheckoutIntent(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, intent)
}

// ConfirmPayment 校验支付签名并落单
func (h *Handler) ConfirmPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}

	order, err := h.PaymentService.ConfirmCheckout(c.Request.Context(), uid, service.ConfirmPaymentInput{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		Order:          req.toServiceInput(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_id":       order.ID,
		"order_no":       order.OrderNo,
		"total_amount":   order.TotalAmount,
		"payment_status": order.PaymentStatus,
	})
}

// PaymentWebhook 处理 Razorpay Webhook 回调
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	signature := c.GetHeader(razorpaySignatureHeader)
	if err := h.PaymentService.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"received": true})
}
