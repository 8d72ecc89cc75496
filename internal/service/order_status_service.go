package service

import (
	"strings"
	"time"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/queue"
	"github.com/medcart/internal/repository"

	"gorm.io/gorm"
)

// OrderStatusServiceOptions 订单状态服务依赖
type OrderStatusServiceOptions struct {
	OrderRepo         repository.OrderRepository
	ProductRepo       repository.ProductRepository
	QueueClient       OrderTaskEnqueuer
	Courier           CourierGateway
	StrictTransitions bool
	RestockOnCancel   bool
	AutoBookShipment  bool
}

// OrderStatusService 订单状态与查询服务
type OrderStatusService struct {
	orderRepo         repository.OrderRepository
	productRepo       repository.ProductRepository
	queueClient       OrderTaskEnqueuer
	courier           CourierGateway
	strictTransitions bool
	restockOnCancel   bool
	autoBookShipment  bool
}

// NewOrderStatusService 创建订单状态服务
func NewOrderStatusService(opts OrderStatusServiceOptions) *OrderStatusService {
	return &OrderStatusService{
		orderRepo:         opts.OrderRepo,
		productRepo:       opts.ProductRepo,
		queueClient:       opts.QueueClient,
		courier:           opts.Courier,
		strictTransitions: opts.StrictTransitions,
		restockOnCancel:   opts.RestockOnCancel,
		autoBookShipment:  opts.AutoBookShipment,
	}
}

// OrderActor 订单查询发起者
type OrderActor struct {
	UserID uint
	// CanViewAll 由路由层按权限判定
	CanViewAll bool
}

// UpdateOrderStatusInput 订单状态更新输入
type UpdateOrderStatusInput struct {
	Status         string
	CourierPartner *string
	AWBNumber      *string
	TrackingStatus *string
	Notes          *string
}

// OrderQuery 订单列表查询参数
type OrderQuery struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
}

var orderForwardTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed:  {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered, constants.OrderStatusCancelled},
}

// IsValidOrderStatus 判断订单状态是否合法
func IsValidOrderStatus(status string) bool {
	for _, item := range constants.OrderStatuses {
		if item == status {
			return true
		}
	}
	return false
}

func isOrderTransitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range orderForwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isOrderDispatched(status string) bool {
	return status == constants.OrderStatusShipped || status == constants.OrderStatusDelivered
}

// isOrderDispatchedOrder 订单曾发货（状态、发货时间或运单号任一成立）
func isOrderDispatchedOrder(order *models.Order) bool {
	return isOrderDispatched(order.Status) || order.ShippedAt != nil || strings.TrimSpace(order.AWBNumber) != ""
}

func reserveOrderStock(productRepo repository.ProductRepository, items []models.OrderItem) error {
	for _, item := range items {
		affected, err := productRepo.DecrementStock(item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			available := 0
			if current, err := productRepo.GetByID(item.ProductID); err == nil && current != nil && current.IsActive {
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
	return nil
}

func isValidPaymentStatus(status string) bool {
	switch status {
	case constants.PaymentStatusPending, constants.PaymentStatusCompleted, constants.PaymentStatusFailed, constants.PaymentStatusRefunding, constants.PaymentStatusRefunded:
		return true
	}
	return false
}

// UpdateStatus 更新订单状态与物流字段
func (s *OrderStatusService) UpdateStatus(orderID uint, input UpdateOrderStatusInput) (*models.Order, error) {
	target := strings.ToLower(strings.TrimSpace(input.Status))
	if !IsValidOrderStatus(target) {
		return nil, newValidationError("status", "must be one of pending, confirmed, processing, shipped, delivered, cancelled")
	}
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}

	var previous string
	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		previous = order.Status
		if s.strictTransitions && !isOrderTransitionAllowed(previous, target) {
			return ErrOrderTransitionInvalid
		}

		now := time.Now()
		updates := buildTrackingUpdates(input)
		if target != previous {
			updates["status"] = target
			switch target {
			case constants.OrderStatusShipped:
				updates["shipped_at"] = now
			case constants.OrderStatusDelivered:
				updates["delivered_at"] = now
			case constants.OrderStatusCancelled:
				updates["cancelled_at"] = now
			}
		}
		// 已回补库存的取消订单被重新打开时需重新占用库存
		reserve := previous == constants.OrderStatusCancelled && target != previous && order.RestockedAt != nil
		if reserve {
			updates["restocked_at"] = nil
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = now
		affected, err := orderRepo.UpdateFieldsIf(orderID, map[string]interface{}{"status": previous}, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderStatusConflict
		}

		productRepo := s.productRepo.WithTx(tx)
		if reserve {
			if err := reserveOrderStock(productRepo, order.Items); err != nil {
				return err
			}
		}
		if target == constants.OrderStatusCancelled && previous != target && s.restockOnCancel && !isOrderDispatchedOrder(order) {
			marked, err := orderRepo.MarkRestocked(orderID, now)
			if err != nil {
				return err
			}
			if marked == 0 {
				return nil
			}
			for _, item := range order.Items {
				if _, err := productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if previous != target {
		logger.Infow("order_status_updated", "order_id", orderID, "from", previous, "to", target)
		enqueueOrderStatusNotify(s.queueClient, orderID, target)
		if target == constants.OrderStatusShipped {
			s.enqueueShipmentBooking(order)
		}
	}
	return order, nil
}

func (s *OrderStatusService) enqueueShipmentBooking(order *models.Order) {
	if !s.autoBookShipment || strings.TrimSpace(order.AWBNumber) != "" {
		return
	}
	if s.courier == nil || !s.courier.Enabled() {
		return
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueOrderBookShipment(queue.OrderShipmentPayload{OrderID: order.ID}); err != nil {
		logger.Warnw("order_book_shipment_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

func buildTrackingUpdates(input UpdateOrderStatusInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if input.CourierPartner != nil {
		updates["courier_partner"] = strings.TrimSpace(*input.CourierPartner)
	}
	if input.AWBNumber != nil {
		updates["awb_number"] = strings.TrimSpace(*input.AWBNumber)
	}
	if input.TrackingStatus != nil {
		updates["tracking_status"] = strings.TrimSpace(*input.TrackingStatus)
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	return updates
}

// GetOrder 获取订单详情（非本人且无全局查看权限时视为未找到）
func (s *OrderStatusService) GetOrder(actor OrderActor, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	var (
		order *models.Order
		err   error
	)
	switch {
	case actor.CanViewAll:
		order, err = s.orderRepo.GetByID(orderID)
	case actor.UserID != 0:
		order, err = s.orderRepo.GetByIDAndUser(orderID, actor.UserID)
	default:
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersForUser 用户订单列表（按创建时间倒序）
func (s *OrderStatusService) ListOrdersForUser(userID uint, query OrderQuery) ([]models.Order, int64, error) {
	if userID == 0 {
		return nil, 0, newValidationError("user_id", "is required")
	}
	query.UserID = userID
	filter, err := query.toFilter()
	if err != nil {
		return nil, 0, err
	}
	return s.orderRepo.ListByUser(filter)
}

// ListAllOrders 全部订单列表
func (s *OrderStatusService) ListAllOrders(query OrderQuery) ([]models.Order, int64, error) {
	filter, err := query.toFilter()
	if err != nil {
		return nil, 0, err
	}
	return s.orderRepo.ListAdmin(filter)
}

func (q OrderQuery) toFilter() (repository.OrderListFilter, error) {
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status != "" && !IsValidOrderStatus(status) {
		return repository.OrderListFilter{}, newValidationError("status", "unknown order status")
	}
	paymentStatus := strings.ToLower(strings.TrimSpace(q.PaymentStatus))
	if paymentStatus != "" && !isValidPaymentStatus(paymentStatus) {
		return repository.OrderListFilter{}, newValidationError("payment_status", "unknown payment status")
	}
	return repository.OrderListFilter{
		Page:          q.Page,
		PageSize:      q.PageSize,
		UserID:        q.UserID,
		Status:        status,
		PaymentStatus: paymentStatus,
		OrderNo:       strings.TrimSpace(q.OrderNo),
	}, nil
}
