package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/queue"
	"github.com/medcart/internal/repository"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderTaskEnqueuer 订单异步任务投递接口（*queue.Client 实现）
type OrderTaskEnqueuer interface {
	Enabled() bool
	EnqueueOrderStatusNotify(payload queue.OrderStatusNotifyPayload, opts ...asynq.Option) error
	EnqueueOrderBookShipment(payload queue.OrderShipmentPayload, opts ...asynq.Option) error
}

// CheckoutRecorder 下单结果指标记录接口
type CheckoutRecorder interface {
	ObserveCheckout(flow, outcome string)
}

// OrderServiceOptions 订单服务依赖
type OrderServiceOptions struct {
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	QueueClient OrderTaskEnqueuer
	Recorder    CheckoutRecorder
	NoPrefix    string
	Currency    string
}

// OrderService 下单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	queueClient OrderTaskEnqueuer
	recorder    CheckoutRecorder
	noPrefix    string
	currency    string
}

// NewOrderService 创建下单服务
func NewOrderService(opts OrderServiceOptions) *OrderService {
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = constants.CurrencyINR
	}
	return &OrderService{
		orderRepo:   opts.OrderRepo,
		productRepo: opts.ProductRepo,
		cartRepo:    opts.CartRepo,
		queueClient: opts.QueueClient,
		recorder:    opts.Recorder,
		noPrefix:    strings.TrimSpace(opts.NoPrefix),
		currency:    currency,
	}
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	ShippingAddress string
	BillingAddress  string
	Phone           string
	Notes           string
}

// PaidOrderInput 已支付订单的支付信息
type PaidOrderInput struct {
	PaymentID      string
	PaymentMethod  string
	GatewayOrderID string
	// ExpectedAmount 非空时要求购物车合计与之相等
	ExpectedAmount *models.Money
}

type orderPlan struct {
	items []models.OrderItem
	total models.Money
}

const (
	checkoutFlowStandard = "standard"
	checkoutFlowPaid     = "paid"
)

// CreateOrder 将购物车转为待支付订单
func (s *OrderService) CreateOrder(userID uint, input CreateOrderInput) (*models.Order, error) {
	order, err := s.createOrder(userID, input, nil)
	s.observe(checkoutFlowStandard, err)
	return order, err
}

// ConfirmPaidOrder 支付成功后将购物车转为已确认订单
func (s *OrderService) ConfirmPaidOrder(userID uint, input CreateOrderInput, paid PaidOrderInput) (*models.Order, error) {
	paymentID := strings.TrimSpace(paid.PaymentID)
	if paymentID == "" {
		return nil, newValidationError("payment_id", "is required")
	}
	paid.PaymentID = paymentID
	order, err := s.createOrder(userID, input, &paid)
	s.observe(checkoutFlowPaid, err)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyCart):
		logger.Errorw("paid_order_empty_cart", "user_id", userID, "payment_id", paymentID, "gateway_order_id", paid.GatewayOrderID)
	case errors.Is(err, ErrOrderCreationFailed):
		logger.Errorw("paid_order_create_failed", "user_id", userID, "payment_id", paymentID, "gateway_order_id", paid.GatewayOrderID, "error", err)
	default:
		logger.Warnw("paid_order_rejected", "user_id", userID, "payment_id", paymentID, "error", err)
	}
	return order, err
}

func (s *OrderService) createOrder(userID uint, input CreateOrderInput, paid *PaidOrderInput) (*models.Order, error) {
	if userID == 0 {
		return nil, newValidationError("user_id", "is required")
	}
	normalized, err := normalizeCreateOrderInput(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	orderNo, err := generateOrderNo(s.noPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	var order *models.Order
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		cartItems, err := cartRepo.ListByUserForUpdate(userID)
		if err != nil {
			return err
		}
		lines := eligibleCartItems(cartItems)
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		plan, err := buildOrderPlan(lines)
		if err != nil {
			return err
		}
		if paid != nil && paid.ExpectedAmount != nil && !paid.ExpectedAmount.Equal(plan.total) {
			return ErrPaymentAmountMismatch
		}

		order = newPendingOrder(orderNo, userID, s.currency, plan.total, normalized, now)
		if paid != nil {
			order.Status = constants.OrderStatusConfirmed
			order.PaymentStatus = constants.PaymentStatusCompleted
			order.PaymentID = paid.PaymentID
			order.PaymentMethod = strings.TrimSpace(paid.PaymentMethod)
			order.GatewayOrderID = strings.TrimSpace(paid.GatewayOrderID)
		}
		if err := s.orderRepo.WithTx(tx).Create(order, plan.items); err != nil {
			return err
		}
		for _, item := range plan.items {
			affected, err := productRepo.DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				current, err := productRepo.GetByID(item.ProductID)
				if err != nil {
					logger.Errorw("order_create_stock_recheck_failed", "user_id", userID, "order_no", orderNo, "product_id", item.ProductID, "error", err)
					return err
				}
				available := 0
				if current != nil && current.IsActive {
					available = current.StockQuantity
				}
				return &InsufficientStockError{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					Requested:   item.Quantity,
					Available:   available,
				}
			}
		}

		lineIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			lineIDs = append(lineIDs, line.ID)
		}
		removed, err := cartRepo.DeleteByIDsAndUser(userID, lineIDs)
		if err != nil {
			return err
		}
		if removed != int64(len(lineIDs)) {
			logger.Warnw("order_create_cart_changed", "user_id", userID, "order_no", orderNo, "expected", len(lineIDs), "removed", removed)
			return fmt.Errorf("%w: %w", ErrOrderCreationFailed, ErrCartIntegrity)
		}
		return nil
	})
	if err != nil {
		if isCheckoutRejection(err) {
			return nil, err
		}
		logger.Errorw("order_create_transaction_failed", "user_id", userID, "order_no", orderNo, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", userID,
		"status", order.Status,
		"total_amount", order.TotalAmount.String(),
	)
	s.enqueueStatusNotify(order.ID, order.Status)
	return order, nil
}

func newPendingOrder(orderNo string, userID uint, currency string, total models.Money, input CreateOrderInput, now time.Time) *models.Order {
	return &models.Order{
		OrderNo:         orderNo,
		UserID:          userID,
		Status:          constants.OrderStatusPending,
		Currency:        currency,
		TotalAmount:     total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Phone:           input.Phone,
		Notes:           input.Notes,
		PaymentStatus:   constants.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// isCheckoutRejection 下单事务中返回的业务错误，原样透出
func isCheckoutRejection(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrPaymentAmountMismatch) ||
		errors.Is(err, ErrOrderCreationFailed)
}

func (s *OrderService) enqueueStatusNotify(orderID uint, status string) {
	enqueueOrderStatusNotify(s.queueClient, orderID, status)
}

func (s *OrderService) observe(flow string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveCheckout(flow, CheckoutOutcome(err))
}

// CheckoutOutcome 下单结果分类，用于指标标签
func CheckoutOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrPaymentAmountMismatch):
		return "amount_mismatch"
	default:
		return "order_creation_failed"
	}
}

func enqueueOrderStatusNotify(queueClient OrderTaskEnqueuer, orderID uint, status string) {
	if queueClient == nil || !queueClient.Enabled() || orderID == 0 {
		return
	}
	if err := queueClient.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{
		OrderID: orderID,
		Status:  strings.TrimSpace(status),
	}); err != nil {
		logger.Warnw("order_status_notify_enqueue_failed", "order_id", orderID, "status", status, "error", err)
	}
}

func normalizeCreateOrderInput(input CreateOrderInput) (CreateOrderInput, error) {
	normalized := CreateOrderInput{
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		BillingAddress:  strings.TrimSpace(input.BillingAddress),
		Phone:           strings.TrimSpace(input.Phone),
		Notes:           strings.TrimSpace(input.Notes),
	}
	if normalized.ShippingAddress == "" {
		return CreateOrderInput{}, newValidationError("shipping_address", "is required")
	}
	if normalized.Phone == "" {
		return CreateOrderInput{}, newValidationError("phone", "is required")
	}
	if normalized.BillingAddress == "" {
		normalized.BillingAddress = normalized.ShippingAddress
	}
	return normalized, nil
}

func buildOrderPlan(lines []models.CartItem) (*orderPlan, error) {
	plan := &orderPlan{
		items: make([]models.OrderItem, 0, len(lines)),
		total: models.NewMoneyFromDecimal(decimal.Zero),
	}
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, newValidationError("quantity", fmt.Sprintf("invalid quantity for product %d", line.ProductID))
		}
		if _, ok := seen[line.ProductID]; ok {
			return nil, fmt.Errorf("%w: %w", ErrOrderCreationFailed, ErrCartIntegrity)
		}
		seen[line.ProductID] = struct{}{}

		product := line.Product
		if line.Quantity > product.StockQuantity {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.StockQuantity,
			}
		}
		lineTotal := product.Price.MulQuantity(line.Quantity)
		plan.items = append(plan.items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			TotalPrice:  lineTotal,
		})
		plan.total = plan.total.Add(lineTotal)
	}
	return plan, nil
}

func generateOrderNo(prefix string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%06d", prefix, now.Format("20060102150405"), n.Int64()), nil
}
