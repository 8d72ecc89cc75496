package service

import (
	"errors"
	"testing"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"

	"gorm.io/gorm"
)

func newStatusService(f *serviceFixture, strict bool, courier CourierGateway) *OrderStatusService {
	return NewOrderStatusService(OrderStatusServiceOptions{
		OrderRepo:         f.orderRepo,
		ProductRepo:       f.productRepo,
		QueueClient:       f.queue,
		Courier:           courier,
		StrictTransitions: strict,
		RestockOnCancel:   true,
		AutoBookShipment:  true,
	})
}

func placeOrder(t *testing.T, f *serviceFixture, email string, quantity int) (*models.Order, *models.Product) {
	t.Helper()
	user := f.createUser(t, email)
	product := f.createProduct(t, "Wheelchair", "8500.00", 10)
	f.addToCart(t, user.ID, product.ID, quantity)
	order, err := f.orders.CreateOrder(user.ID, validShippingInput())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order, product
}

func strPtr(value string) *string {
	return &value
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "status@example.com", 1)
	statuses := newStatusService(f, false, nil)

	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: "lost"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := statuses.UpdateStatus(9999, UpdateOrderStatusInput{Status: "confirmed"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatusDefaultAllowsAnyTransition(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "free@example.com", 1)
	statuses := newStatusService(f, false, nil)

	updated, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{
		Status:         "Delivered",
		CourierPartner: strPtr("dtdc"),
		AWBNumber:      strPtr("D123"),
	})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != constants.OrderStatusDelivered || updated.DeliveredAt == nil {
		t.Fatalf("unexpected order: %+v", updated)
	}
	if updated.AWBNumber != "D123" || updated.CourierPartner != "dtdc" {
		t.Fatalf("tracking fields not applied: %+v", updated)
	}
	// 下单一次 + 状态变更一次
	if f.queue.notifyCount() != 2 {
		t.Fatalf("expected 2 notifications, got %d", f.queue.notifyCount())
	}
}

func TestUpdateStatusSameStatusAppliesTrackingOnly(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "same@example.com", 1)
	statuses := newStatusService(f, true, nil)

	updated, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{
		Status: constants.OrderStatusPending,
		Notes:  strPtr("call before delivery"),
	})
	if err != nil {
		t.Fatalf("same status update failed: %v", err)
	}
	if updated.Notes != "call before delivery" {
		t.Fatalf("notes not applied: %q", updated.Notes)
	}
	if f.queue.notifyCount() != 1 {
		t.Fatalf("same status must not notify, got %d", f.queue.notifyCount())
	}
}

func TestUpdateStatusStrictTransitions(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "strict@example.com", 1)
	statuses := newStatusService(f, true, nil)

	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusShipped}); !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("expected transition error, got %v", err)
	}
	for _, status := range []string{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, constants.OrderStatusShipped, constants.OrderStatusDelivered} {
		if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: status}); err != nil {
			t.Fatalf("forward transition to %s failed: %v", status, err)
		}
	}
	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("delivered order must not be cancelled in strict mode, got %v", err)
	}
}

func TestUpdateStatusCancelRestocks(t *testing.T) {
	f := newServiceFixture(t)
	order, product := placeOrder(t, f, "cancel@example.com", 3)
	statuses := newStatusService(f, false, nil)
	if got := f.stockOf(t, product.ID); got != 7 {
		t.Fatalf("expected stock 7 after order, got %d", got)
	}

	updated, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if updated.CancelledAt == nil {
		t.Fatalf("cancelled_at should be set")
	}
	if got := f.stockOf(t, product.ID); got != 10 {
		t.Fatalf("expected restock to 10, got %d", got)
	}

	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("repeat cancel failed: %v", err)
	}
	if got := f.stockOf(t, product.ID); got != 10 {
		t.Fatalf("repeat cancel must not restock again, got %d", got)
	}
}

func TestUpdateStatusCancelReopenCancelConservesStock(t *testing.T) {
	f := newServiceFixture(t)
	order, product := placeOrder(t, f, "reopen@example.com", 3)
	statuses := newStatusService(f, false, nil)

	steps := []struct {
		status string
		stock  int
	}{
		{status: constants.OrderStatusCancelled, stock: 10},
		{status: constants.OrderStatusPending, stock: 7},
		{status: constants.OrderStatusCancelled, stock: 10},
		{status: constants.OrderStatusConfirmed, stock: 7},
	}
	for _, step := range steps {
		if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: step.status}); err != nil {
			t.Fatalf("update to %s failed: %v", step.status, err)
		}
		if got := f.stockOf(t, product.ID); got != step.stock {
			t.Fatalf("after %s expected stock %d, got %d", step.status, step.stock, got)
		}
	}
}

func TestUpdateStatusReopenWithoutStockKeepsCancelled(t *testing.T) {
	f := newServiceFixture(t)
	order, product := placeOrder(t, f, "reopen-empty@example.com", 3)
	statuses := newStatusService(f, false, nil)
	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := f.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock_quantity", 1).Error; err != nil {
		t.Fatalf("drain stock failed: %v", err)
	}

	_, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusPending})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.Requested != 3 || stockErr.Available != 1 {
		t.Fatalf("expected insufficient stock on reopen, got %v", err)
	}
	stored, err := f.orderRepo.GetByID(order.ID)
	if err != nil || stored == nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusCancelled || stored.RestockedAt == nil {
		t.Fatalf("order must stay cancelled and restocked: %+v", stored)
	}
	if got := f.stockOf(t, product.ID); got != 1 {
		t.Fatalf("stock must be unchanged, got %d", got)
	}
}

// racingOrderRepository 在事务内读取订单后模拟另一请求抢先修改状态
type racingOrderRepository struct {
	repository.OrderRepository
	tx      *gorm.DB
	raceTo  string
	applied bool
}

func (r *racingOrderRepository) WithTx(tx *gorm.DB) repository.OrderRepository {
	return &racingOrderRepository{OrderRepository: r.OrderRepository.WithTx(tx), tx: tx, raceTo: r.raceTo}
}

func (r *racingOrderRepository) GetByID(id uint) (*models.Order, error) {
	order, err := r.OrderRepository.GetByID(id)
	if err != nil || order == nil || r.tx == nil || r.applied {
		return order, err
	}
	r.applied = true
	if err := r.tx.Model(&models.Order{}).Where("id = ?", id).Update("status", r.raceTo).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func TestUpdateStatusConcurrentChangeIsRejected(t *testing.T) {
	f := newServiceFixture(t)
	order, product := placeOrder(t, f, "race-cancel@example.com", 3)
	statuses := NewOrderStatusService(OrderStatusServiceOptions{
		OrderRepo:       &racingOrderRepository{OrderRepository: f.orderRepo, raceTo: constants.OrderStatusProcessing},
		ProductRepo:     f.productRepo,
		QueueClient:     f.queue,
		RestockOnCancel: true,
	})

	_, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled})
	if !errors.Is(err, ErrOrderStatusConflict) {
		t.Fatalf("expected status conflict, got %v", err)
	}
	if got := f.stockOf(t, product.ID); got != 7 {
		t.Fatalf("conflicting cancel must not restock, got %d", got)
	}
	stored, err := f.orderRepo.GetByID(order.ID)
	if err != nil || stored == nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusPending || stored.RestockedAt != nil {
		t.Fatalf("transaction must roll back: %+v", stored)
	}
	if f.queue.notifyCount() != 1 {
		t.Fatalf("conflict must not notify, got %d", f.queue.notifyCount())
	}
}

func TestUpdateStatusCancelAfterShipKeepsStock(t *testing.T) {
	f := newServiceFixture(t)
	order, product := placeOrder(t, f, "shipped-cancel@example.com", 2)
	statuses := newStatusService(f, false, nil)

	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusShipped}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := f.stockOf(t, product.ID); got != 8 {
		t.Fatalf("shipped order cancel must not restock, got %d", got)
	}
}

func TestUpdateStatusShippedEnqueuesBooking(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "book@example.com", 1)
	statuses := newStatusService(f, false, &fakeCourier{enabled: true, awb: "D1"})

	if _, err := statuses.UpdateStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusShipped}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if f.queue.bookingCount() != 1 {
		t.Fatalf("expected booking task, got %d", f.queue.bookingCount())
	}

	other, _ := placeOrder(t, f, "book-awb@example.com", 1)
	if _, err := statuses.UpdateStatus(other.ID, UpdateOrderStatusInput{Status: constants.OrderStatusShipped, AWBNumber: strPtr("MANUAL1")}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if f.queue.bookingCount() != 1 {
		t.Fatalf("order with awb must not enqueue booking, got %d", f.queue.bookingCount())
	}
}

func TestGetOrderVisibility(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "owner@example.com", 1)
	stranger := f.createUser(t, "stranger@example.com")
	statuses := newStatusService(f, false, nil)

	if _, err := statuses.GetOrder(OrderActor{UserID: order.UserID}, order.ID); err != nil {
		t.Fatalf("owner should see order: %v", err)
	}
	if _, err := statuses.GetOrder(OrderActor{UserID: stranger.ID}, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("stranger should get not found, got %v", err)
	}
	if _, err := statuses.GetOrder(OrderActor{UserID: stranger.ID, CanViewAll: true}, order.ID); err != nil {
		t.Fatalf("privileged actor should see order: %v", err)
	}
}

func TestListOrders(t *testing.T) {
	f := newServiceFixture(t)
	first, _ := placeOrder(t, f, "list-a@example.com", 1)
	placeOrder(t, f, "list-b@example.com", 1)
	statuses := newStatusService(f, false, nil)

	mine, total, err := statuses.ListOrdersForUser(first.UserID, OrderQuery{})
	if err != nil || total != 1 || mine[0].ID != first.ID {
		t.Fatalf("unexpected user orders: total=%d err=%v", total, err)
	}
	if _, _, err := statuses.ListOrdersForUser(first.UserID, OrderQuery{Status: "bogus"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, all, err := statuses.ListAllOrders(OrderQuery{Status: constants.OrderStatusPending})
	if err != nil || all != 2 {
		t.Fatalf("expected 2 pending orders, got %d err=%v", all, err)
	}
}
