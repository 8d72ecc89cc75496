package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"

	"github.com/google/uuid"
)

// PaymentServiceOptions 支付服务依赖
type PaymentServiceOptions struct {
	IntentRepo   repository.PaymentIntentRepository
	OrderRepo    repository.OrderRepository
	CartService  *CartService
	OrderService *OrderService
	Gateway      PaymentGateway
	Currency     string
}

// PaymentService 支付流程服务
type PaymentService struct {
	intentRepo   repository.PaymentIntentRepository
	orderRepo    repository.OrderRepository
	cartService  *CartService
	orderService *OrderService
	gateway      PaymentGateway
	currency     string
}

// NewPaymentService 创建支付服务
func NewPaymentService(opts PaymentServiceOptions) *PaymentService {
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = constants.CurrencyINR
	}
	return &PaymentService{
		intentRepo:   opts.IntentRepo,
		orderRepo:    opts.OrderRepo,
		cartService:  opts.CartService,
		orderService: opts.OrderService,
		gateway:      opts.Gateway,
		currency:     currency,
	}
}

// CheckoutIntent 前端拉起支付所需信息
type CheckoutIntent struct {
	GatewayOrderID string       `json:"gateway_order_id"`
	Amount         models.Money `json:"amount"`
	Currency       string       `json:"currency"`
	KeyID          string       `json:"key_id"`
	Gateway        string       `json:"gateway"`
}

// ConfirmPaymentInput 支付确认输入
type ConfirmPaymentInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	Order          CreateOrderInput
}

func (s *PaymentService) gatewayEnabled() bool {
	return s.gateway != nil && s.gateway.Enabled()
}

// CreateCheckoutIntent 按购物车金额创建支付意图
func (s *PaymentService) CreateCheckoutIntent(ctx context.Context, userID uint) (*CheckoutIntent, error) {
	if !s.gatewayEnabled() {
		return nil, ErrPaymentGatewayDisabled
	}
	view, err := s.cartService.View(userID)
	if err != nil {
		return nil, err
	}
	if view.ItemCount == 0 {
		return nil, ErrEmptyCart
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent, err := s.gateway.CreateIntent(ctx, view.Subtotal, s.currency, receipt, map[string]string{
		"user_id": fmt.Sprintf("%d", userID),
	})
	if err != nil {
		logger.Errorw("payment_intent_gateway_failed", "user_id", userID, "error", err)
		return nil, err
	}

	now := time.Now()
	record := &models.PaymentIntent{
		UserID:         userID,
		Gateway:        s.gateway.Name(),
		GatewayOrderID: intent.GatewayOrderID,
		Receipt:        receipt,
		Amount:         view.Subtotal,
		Currency:       s.currency,
		Status:         constants.PaymentIntentStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.intentRepo.Create(record); err != nil {
		return nil, err
	}
	logger.Infow("payment_intent_created", "user_id", userID, "gateway_order_id", intent.GatewayOrderID, "amount", view.Subtotal.String())

	return &CheckoutIntent{
		GatewayOrderID: intent.GatewayOrderID,
		Amount:         view.Subtotal,
		Currency:       s.currency,
		KeyID:          intent.KeyID,
		Gateway:        s.gateway.Name(),
	}, nil
}

// ConfirmCheckout 校验支付签名后生成已确认订单
func (s *PaymentService) ConfirmCheckout(ctx context.Context, userID uint, input ConfirmPaymentInput) (*models.Order, error) {
	gatewayOrderID := strings.TrimSpace(input.GatewayOrderID)
	paymentID := strings.TrimSpace(input.PaymentID)
	signature := strings.TrimSpace(input.Signature)
	switch {
	case gatewayOrderID == "":
		return nil, newValidationError("gateway_order_id", "is required")
	case paymentID == "":
		return nil, newValidationError("payment_id", "is required")
	case signature == "":
		return nil, newValidationError("signature", "is required")
	}
	if _, err := normalizeCreateOrderInput(input.Order); err != nil {
		return nil, err
	}
	if !s.gatewayEnabled() {
		return nil, ErrPaymentGatewayDisabled
	}

	intent, err := s.intentRepo.GetByGatewayOrderIDAndUser(gatewayOrderID, userID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrPaymentIntentNotFound
	}
	if intent.Status == constants.PaymentIntentStatusConsumed {
		return nil, ErrPaymentAlreadyUsed
	}

	if err := s.gateway.VerifyPayment(gatewayOrderID, paymentID, signature); err != nil {
		logger.Warnw("payment_signature_invalid", "user_id", userID, "gateway_order_id", gatewayOrderID, "payment_id", paymentID)
		if _, markErr := s.intentRepo.TransitionStatus(intent.ID,
			[]string{constants.PaymentIntentStatusCreated},
			constants.PaymentIntentStatusFailed, nil); markErr != nil {
			logger.Warnw("payment_intent_mark_failed_error", "intent_id", intent.ID, "error", markErr)
		}
		return nil, ErrPaymentSignatureInvalid
	}

	now := time.Now()
	claimed, err := s.intentRepo.TransitionStatus(intent.ID,
		[]string{constants.PaymentIntentStatusCreated, constants.PaymentIntentStatusPaid, constants.PaymentIntentStatusFailed},
		constants.PaymentIntentStatusConsumed,
		map[string]interface{}{"payment_id": paymentID, "paid_at": now},
	)
	if err != nil {
		return nil, err
	}
	if claimed == 0 {
		return nil, ErrPaymentAlreadyUsed
	}

	amount := intent.Amount
	order, err := s.orderService.ConfirmPaidOrder(userID, input.Order, PaidOrderInput{
		PaymentID:      paymentID,
		PaymentMethod:  s.gateway.Name(),
		GatewayOrderID: gatewayOrderID,
		ExpectedAmount: &amount,
	})
	if err != nil {
		if _, revertErr := s.intentRepo.TransitionStatus(intent.ID,
			[]string{constants.PaymentIntentStatusConsumed},
			constants.PaymentIntentStatusPaid, nil); revertErr != nil {
			logger.Errorw("payment_intent_release_failed", "intent_id", intent.ID, "payment_id", paymentID, "error", revertErr)
		}
		return nil, err
	}

	orderID := order.ID
	if _, err := s.intentRepo.TransitionStatus(intent.ID,
		[]string{constants.PaymentIntentStatusConsumed},
		constants.PaymentIntentStatusConsumed,
		map[string]interface{}{"order_id": orderID}); err != nil {
		logger.Warnw("payment_intent_link_order_failed", "intent_id", intent.ID, "order_id", orderID, "error", err)
	}
	logger.Infow("payment_confirmed", "user_id", userID, "order_id", orderID, "payment_id", paymentID)
	return order, nil
}

// HandleWebhook 处理网关异步回调
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gatewayEnabled() {
		return ErrPaymentGatewayDisabled
	}
	if err := s.gateway.VerifyWebhook(body, signature); err != nil {
		logger.Warnw("payment_webhook_signature_invalid", "error", err)
		return ErrPaymentSignatureInvalid
	}
	event, err := s.gateway.ParseWebhook(body)
	if err != nil {
		return err
	}

	var (
		from   []string
		to     string
		update map[string]interface{}
	)
	switch event.Event {
	case constants.RazorpayEventPaymentCaptured, constants.RazorpayEventOrderPaid:
		from = []string{constants.PaymentIntentStatusCreated, constants.PaymentIntentStatusFailed}
		to = constants.PaymentIntentStatusPaid
		update = map[string]interface{}{"paid_at": time.Now()}
		if event.PaymentID != "" {
			update["payment_id"] = event.PaymentID
		}
	case constants.RazorpayEventPaymentFailed:
		from = []string{constants.PaymentIntentStatusCreated}
		to = constants.PaymentIntentStatusFailed
	default:
		logger.Debugw("payment_webhook_ignored", "event", event.Event)
		return nil
	}

	if event.GatewayOrderID == "" {
		logger.Warnw("payment_webhook_missing_order", "event", event.Event, "payment_id", event.PaymentID)
		return nil
	}
	intent, err := s.intentRepo.GetByGatewayOrderID(event.GatewayOrderID)
	if err != nil {
		return err
	}
	if intent == nil {
		logger.Warnw("payment_webhook_intent_not_found", "event", event.Event, "gateway_order_id", event.GatewayOrderID)
		return nil
	}
	if update == nil {
		update = map[string]interface{}{}
	}
	if event.Raw != nil {
		update["provider_payload"] = models.JSON(event.Raw)
	}
	affected, err := s.intentRepo.TransitionStatus(intent.ID, from, to, update)
	if err != nil {
		return err
	}
	logger.Infow("payment_webhook_processed",
		"event", event.Event,
		"gateway_order_id", event.GatewayOrderID,
		"payment_id", event.PaymentID,
		"applied", affected > 0,
	)
	return nil
}

// RefundOrder 对已取消且已支付的订单发起全额退款
func (s *PaymentService) RefundOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	if !s.gatewayEnabled() {
		return nil, ErrPaymentGatewayDisabled
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusCancelled ||
		order.PaymentStatus != constants.PaymentStatusCompleted ||
		strings.TrimSpace(order.PaymentID) == "" {
		return nil, ErrOrderNotRefundable
	}
	// 先占用退款状态再调用网关，并发请求只有一个能进入网关
	claimed, err := s.orderRepo.UpdateFieldsIf(orderID, map[string]interface{}{
		"status":         constants.OrderStatusCancelled,
		"payment_status": constants.PaymentStatusCompleted,
	}, map[string]interface{}{
		"payment_status": constants.PaymentStatusRefunding,
	})
	if err != nil {
		return nil, err
	}
	if claimed == 0 {
		return nil, ErrOrderNotRefundable
	}
	if err := s.gateway.Refund(ctx, order.PaymentID, order.TotalAmount); err != nil {
		logger.Errorw("order_refund_failed", "order_id", orderID, "payment_id", order.PaymentID, "error", err)
		if _, rollbackErr := s.orderRepo.UpdateFieldsIf(orderID, map[string]interface{}{
			"payment_status": constants.PaymentStatusRefunding,
		}, map[string]interface{}{
			"payment_status": constants.PaymentStatusCompleted,
		}); rollbackErr != nil {
			logger.Errorw("order_refund_release_failed", "order_id", orderID, "payment_id", order.PaymentID, "error", rollbackErr)
		}
		return nil, err
	}
	if _, err := s.orderRepo.UpdateFieldsIf(orderID, map[string]interface{}{
		"payment_status": constants.PaymentStatusRefunding,
	}, map[string]interface{}{
		"payment_status": constants.PaymentStatusRefunded,
	}); err != nil {
		logger.Errorw("order_refund_persist_failed", "order_id", orderID, "payment_id", order.PaymentID, "error", err)
		return nil, err
	}
	logger.Infow("order_refunded", "order_id", orderID, "payment_id", order.PaymentID, "amount", order.TotalAmount.String())
	return s.orderRepo.GetByID(orderID)
}
