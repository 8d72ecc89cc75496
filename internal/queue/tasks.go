package queue

import (
	"encoding/json"
	"fmt"

	"github.com/medcart/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskOrderBookShipment 物流下单任务
	TaskOrderBookShipment = constants.TaskOrderBookShipment
	// TaskOrderRefreshTracking 物流轨迹刷新任务
	TaskOrderRefreshTracking = constants.TaskOrderRefreshTracking
)

// OrderStatusNotifyPayload 订单状态通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderShipmentPayload 物流任务载荷
type OrderShipmentPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderStatusNotifyTask 创建订单状态通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderStatusNotify, payload)
}

// NewOrderBookShipmentTask 创建物流下单任务
func NewOrderBookShipmentTask(payload OrderShipmentPayload) (*asynq.Task, error) {
	if payload.OrderID == 0 {
		return nil, fmt.Errorf("order id is required")
	}
	return newJSONTask(TaskOrderBookShipment, payload)
}

// NewOrderRefreshTrackingTask 创建物流轨迹刷新任务
func NewOrderRefreshTrackingTask(payload OrderShipmentPayload) (*asynq.Task, error) {
	if payload.OrderID == 0 {
		return nil, fmt.Errorf("order id is required")
	}
	return newJSONTask(TaskOrderRefreshTracking, payload)
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
