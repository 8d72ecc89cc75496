package service

import (
	"context"
	"testing"

	"github.com/medcart/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookForOrderStoresAWBOnce(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "ship@example.com", 2)
	_, err := f.orderRepo.UpdateFields(order.ID, map[string]interface{}{"status": constants.OrderStatusConfirmed})
	require.NoError(t, err)

	courier := &fakeCourier{enabled: true, awb: "D77001"}
	shipments := NewShipmentService(f.orderRepo, courier)

	booked, err := shipments.BookForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "D77001", booked.AWBNumber)
	assert.Equal(t, constants.CourierPartnerDTDC, booked.CourierPartner)
	assert.Equal(t, constants.TrackingStatusBooked, booked.TrackingStatus)
	require.Len(t, courier.requests, 1)
	assert.Equal(t, 2, courier.requests[0].Pieces)
	assert.Equal(t, "17000.00", courier.requests[0].DeclaredValue.String())
	assert.Equal(t, "ship@example.com", courier.requests[0].Consignee)

	again, err := shipments.BookForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "D77001", again.AWBNumber)
	assert.Len(t, courier.requests, 1, "booking must be idempotent")
}

func TestBookForOrderGuards(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "guard-ship@example.com", 1)

	disabled := NewShipmentService(f.orderRepo, &fakeCourier{enabled: false})
	_, err := disabled.BookForOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrCourierDisabled)

	enabled := NewShipmentService(f.orderRepo, &fakeCourier{enabled: true, awb: "D1"})
	_, err = enabled.BookForOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrShipmentNotAllowed, "pending order cannot be shipped")

	_, err = enabled.BookForOrder(context.Background(), 4040)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRefreshTrackingUpdatesStatus(t *testing.T) {
	f := newServiceFixture(t)
	order, _ := placeOrder(t, f, "track@example.com", 1)
	courier := &fakeCourier{enabled: true, status: constants.TrackingStatusInTransit}
	shipments := NewShipmentService(f.orderRepo, courier)

	_, err := shipments.RefreshTracking(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrShipmentNotBooked)

	_, err = f.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"awb_number":      "D55",
		"tracking_status": constants.TrackingStatusBooked,
	})
	require.NoError(t, err)

	refreshed, err := shipments.RefreshTracking(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TrackingStatusInTransit, refreshed.TrackingStatus)
}
