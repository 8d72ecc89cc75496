package service

import (
	"context"
	"fmt"

	"github.com/medcart/internal/config"
	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/courier/dtdc"
	"github.com/medcart/internal/models"
)

// ShipmentRequest 物流下单请求
type ShipmentRequest struct {
	OrderNo       string
	Consignee     string
	Address       string
	Phone         string
	Pieces        int
	DeclaredValue models.Money
}

// Shipment 物流下单结果
type Shipment struct {
	AWBNumber string
	Partner   string
	Status    string
}

// TrackingInfo 物流轨迹
type TrackingInfo struct {
	AWBNumber string
	Status    string
	RawStatus string
}

// CourierGateway 物流商抽象
type CourierGateway interface {
	Enabled() bool
	Name() string
	BookShipment(ctx context.Context, req ShipmentRequest) (Shipment, error)
	Track(ctx context.Context, awb string) (TrackingInfo, error)
}

// DTDCGateway 基于 DTDC 的物流网关
type DTDCGateway struct {
	client *dtdc.Client
}

// NewDTDCGateway 从配置创建 DTDC 网关
func NewDTDCGateway(cfg config.CourierConfig) *DTDCGateway {
	return &DTDCGateway{client: dtdc.NewClient(dtdc.Config{
		APIKey:        cfg.APIKey,
		ClientID:      cfg.ClientID,
		Secret:        cfg.Secret,
		APIBaseURL:    cfg.BaseURL,
		OriginPincode: cfg.OriginPincode,
		Timeout:       cfg.Timeout(),
	})}
}

// Enabled 是否可用
func (g *DTDCGateway) Enabled() bool {
	return g != nil && g.client.Enabled()
}

// Name 物流商名称
func (g *DTDCGateway) Name() string {
	return constants.CourierPartnerDTDC
}

// BookShipment 预约运单
func (g *DTDCGateway) BookShipment(ctx context.Context, req ShipmentRequest) (Shipment, error) {
	booking, err := g.client.BookShipment(ctx, dtdc.BookingInput{
		ReferenceNo:   req.OrderNo,
		Consignee:     req.Consignee,
		Address:       req.Address,
		Phone:         req.Phone,
		Pieces:        req.Pieces,
		DeclaredValue: req.DeclaredValue.Decimal,
	})
	if err != nil {
		return Shipment{}, fmt.Errorf("%w: %v", ErrCourierFailed, err)
	}
	return Shipment{
		AWBNumber: booking.AWBNumber,
		Partner:   constants.CourierPartnerDTDC,
		Status:    constants.TrackingStatusBooked,
	}, nil
}

// Track 查询轨迹
func (g *DTDCGateway) Track(ctx context.Context, awb string) (TrackingInfo, error) {
	tracking, err := g.client.Track(ctx, awb)
	if err != nil {
		return TrackingInfo{}, fmt.Errorf("%w: %v", ErrCourierFailed, err)
	}
	return TrackingInfo{
		AWBNumber: tracking.AWBNumber,
		Status:    tracking.Status,
		RawStatus: tracking.RawStatus,
	}, nil
}
