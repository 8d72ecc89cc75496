package queue

import (
	"encoding/json"
	"testing"

	"github.com/medcart/internal/config"
)

func TestNewOrderStatusNotifyTaskPayload(t *testing.T) {
	task, err := NewOrderStatusNotifyTask(OrderStatusNotifyPayload{OrderID: 12, Status: "shipped"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderStatusNotify {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OrderID != 12 || payload.Status != "shipped" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestNewOrderBookShipmentTaskRequiresOrderID(t *testing.T) {
	if _, err := NewOrderBookShipmentTask(OrderShipmentPayload{}); err == nil {
		t.Fatalf("expected error for empty order id")
	}
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderBookShipment(OrderShipmentPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, serverCfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected redis addr: %s", opt.Addr)
	}
	if serverCfg.Concurrency != 10 {
		t.Fatalf("unexpected concurrency: %d", serverCfg.Concurrency)
	}
	if _, ok := serverCfg.Queues[CriticalQueue]; !ok {
		t.Fatalf("critical queue missing from defaults")
	}
}
