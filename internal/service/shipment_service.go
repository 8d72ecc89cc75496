package service

import (
	"context"
	"strings"
	"time"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"
)

// ShipmentService 物流下单与轨迹服务
type ShipmentService struct {
	orderRepo repository.OrderRepository
	courier   CourierGateway
}

// NewShipmentService 创建物流服务
func NewShipmentService(orderRepo repository.OrderRepository, courier CourierGateway) *ShipmentService {
	return &ShipmentService{
		orderRepo: orderRepo,
		courier:   courier,
	}
}

// Enabled 物流商是否可用
func (s *ShipmentService) Enabled() bool {
	return s != nil && s.courier != nil && s.courier.Enabled()
}

func isShippableStatus(status string) bool {
	switch status {
	case constants.OrderStatusConfirmed, constants.OrderStatusProcessing, constants.OrderStatusShipped:
		return true
	}
	return false
}

// BookForOrder 为订单预约运单（已有运单号时直接返回）
func (s *ShipmentService) BookForOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if strings.TrimSpace(order.AWBNumber) != "" {
		return order, nil
	}
	if !s.Enabled() {
		return nil, ErrCourierDisabled
	}
	if !isShippableStatus(order.Status) {
		return nil, ErrShipmentNotAllowed
	}

	contact, err := s.orderRepo.ResolveContactByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	consignee := strings.TrimSpace(contact.DisplayName)
	if consignee == "" {
		consignee = contact.Email
	}
	pieces := 0
	for _, item := range order.Items {
		pieces += item.Quantity
	}

	shipment, err := s.courier.BookShipment(ctx, ShipmentRequest{
		OrderNo:       order.OrderNo,
		Consignee:     consignee,
		Address:       order.ShippingAddress,
		Phone:         order.Phone,
		Pieces:        pieces,
		DeclaredValue: order.TotalAmount,
	})
	if err != nil {
		logger.Errorw("shipment_booking_failed", "order_id", orderID, "courier", s.courier.Name(), "error", err)
		return nil, err
	}

	partner := strings.TrimSpace(shipment.Partner)
	if partner == "" {
		partner = s.courier.Name()
	}
	status := strings.TrimSpace(shipment.Status)
	if status == "" {
		status = constants.TrackingStatusBooked
	}
	if _, err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"awb_number":      shipment.AWBNumber,
		"courier_partner": partner,
		"tracking_status": status,
		"updated_at":      time.Now(),
	}); err != nil {
		logger.Errorw("shipment_persist_failed", "order_id", orderID, "awb_number", shipment.AWBNumber, "error", err)
		return nil, err
	}
	logger.Infow("shipment_booked", "order_id", orderID, "awb_number", shipment.AWBNumber, "courier", partner)
	return s.orderRepo.GetByID(orderID)
}

// RefreshTracking 同步运单最新状态
func (s *ShipmentService) RefreshTracking(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	awb := strings.TrimSpace(order.AWBNumber)
	if awb == "" {
		return nil, ErrShipmentNotBooked
	}
	if !s.Enabled() {
		return nil, ErrCourierDisabled
	}
	info, err := s.courier.Track(ctx, awb)
	if err != nil {
		return nil, err
	}
	if info.Status == "" || info.Status == order.TrackingStatus {
		return order, nil
	}
	if _, err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"tracking_status": info.Status,
		"updated_at":      time.Now(),
	}); err != nil {
		return nil, err
	}
	logger.Infow("shipment_tracking_updated", "order_id", orderID, "awb_number", awb, "tracking_status", info.Status)
	return s.orderRepo.GetByID(orderID)
}
