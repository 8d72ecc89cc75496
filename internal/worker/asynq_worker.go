package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/medcart/internal/i18n"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/provider"
	"github.com/medcart/internal/queue"
	"github.com/medcart/internal/repository"
	"github.com/medcart/internal/service"

	"github.com/hibiken/asynq"
)

// StatusMessage 订单状态通知内容
type StatusMessage struct {
	To      string
	Locale  string
	Subject string
	Body    string
}

// StatusNotifier 订单状态通知投递接口
type StatusNotifier interface {
	Notify(ctx context.Context, msg StatusMessage) error
}

// LogNotifier 将通知写入日志
type LogNotifier struct{}

// Notify 输出通知日志
func (LogNotifier) Notify(_ context.Context, msg StatusMessage) error {
	logger.Infow("worker_order_status_notified", "to", msg.To, "locale", msg.Locale, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	Notifier StatusNotifier
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		Notifier:  LogNotifier{},
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.observe(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify))
	mux.HandleFunc(queue.TaskOrderBookShipment, c.observe(queue.TaskOrderBookShipment, c.handleOrderBookShipment))
	mux.HandleFunc(queue.TaskOrderRefreshTracking, c.observe(queue.TaskOrderRefreshTracking, c.handleOrderRefreshTracking))
}

func (c *Consumer) observe(taskType string, fn func(context.Context, *asynq.Task) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		started := time.Now()
		err := fn(ctx, task)
		if c.Container != nil {
			c.Metrics.ObserveJob(taskType, err, time.Since(started))
		}
		return err
	}
}

func (c *Consumer) handleOrderStatusNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_notify_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_notify_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	contact, err := c.OrderRepo.ResolveContactByOrderID(order.ID)
	if err != nil {
		logger.Warnw("worker_order_status_notify_resolve_contact_failed", "order_id", order.ID, "error", err)
		return err
	}
	if contact.Email == "" {
		logger.Debugw("worker_order_status_notify_skip_no_receiver", "order_id", order.ID)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	msg := buildStatusMessage(order, contact, status)
	notifier := c.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if err := notifier.Notify(ctx, msg); err != nil {
		logger.Warnw("worker_order_status_notify_send_failed", "order_id", order.ID, "to", msg.To, "error", err)
		return err
	}
	return nil
}

func buildStatusMessage(order *models.Order, contact repository.OrderContact, status string) StatusMessage {
	locale := i18n.NormalizeLocale(contact.Locale)
	name := strings.TrimSpace(contact.DisplayName)
	if name == "" {
		name = contact.Email
	}
	statusText := i18n.T(locale, "order.status."+status)
	msg := StatusMessage{
		To:      contact.Email,
		Locale:  locale,
		Subject: i18n.T(locale, "notify.order_status.subject", order.OrderNo),
	}
	if awb := strings.TrimSpace(order.AWBNumber); awb != "" {
		partner := strings.ToUpper(strings.TrimSpace(order.CourierPartner))
		msg.Body = i18n.T(locale, "notify.order_status.body_tracked", name, order.OrderNo, statusText, partner, awb)
	} else {
		msg.Body = i18n.T(locale, "notify.order_status.body", name, order.OrderNo, statusText)
	}
	return msg
}

func (c *Consumer) handleOrderBookShipment(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.ShipmentService == nil {
		logger.Debugw("worker_order_book_shipment_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := decodeShipmentPayload(task)
	if err != nil {
		logger.Warnw("worker_order_book_shipment_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	if _, err := c.ShipmentService.BookForOrder(ctx, payload.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) ||
			errors.Is(err, service.ErrShipmentNotAllowed) ||
			errors.Is(err, service.ErrCourierDisabled) {
			logger.Infow("worker_order_book_shipment_skipped", "order_id", payload.OrderID, "reason", err.Error())
			return nil
		}
		logger.Warnw("worker_order_book_shipment_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderRefreshTracking(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.ShipmentService == nil {
		logger.Debugw("worker_order_refresh_tracking_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := decodeShipmentPayload(task)
	if err != nil {
		logger.Warnw("worker_order_refresh_tracking_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	if _, err := c.ShipmentService.RefreshTracking(ctx, payload.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) ||
			errors.Is(err, service.ErrShipmentNotBooked) ||
			errors.Is(err, service.ErrCourierDisabled) {
			logger.Debugw("worker_order_refresh_tracking_skipped", "order_id", payload.OrderID, "reason", err.Error())
			return nil
		}
		logger.Warnw("worker_order_refresh_tracking_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func decodeShipmentPayload(task *asynq.Task) (queue.OrderShipmentPayload, error) {
	var payload queue.OrderShipmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
