package service

import (
	"context"
	"fmt"

	"github.com/medcart/internal/config"
	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/payment/razorpay"
)

// GatewayIntent 网关侧创建的支付单
type GatewayIntent struct {
	GatewayOrderID string
	Amount         models.Money
	Currency       string
	KeyID          string
}

// GatewayWebhookEvent 网关回调事件
type GatewayWebhookEvent struct {
	Event          string
	PaymentID      string
	GatewayOrderID string
	Raw            map[string]interface{}
}

// PaymentGateway 支付网关抽象
type PaymentGateway interface {
	Enabled() bool
	Name() string
	CreateIntent(ctx context.Context, amount models.Money, currency, receipt string, notes map[string]string) (GatewayIntent, error)
	VerifyPayment(gatewayOrderID, paymentID, signature string) error
	VerifyWebhook(body []byte, signature string) error
	ParseWebhook(body []byte) (GatewayWebhookEvent, error)
	Refund(ctx context.Context, paymentID string, amount models.Money) error
}

// RazorpayGateway 基于 Razorpay 的支付网关
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway 从配置创建 Razorpay 网关
func NewRazorpayGateway(cfg config.RazorpayConfig) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(razorpay.Config{
		KeyID:         cfg.KeyID,
		KeySecret:     cfg.KeySecret,
		WebhookSecret: cfg.WebhookSecret,
		APIBaseURL:    cfg.BaseURL,
		Timeout:       cfg.Timeout(),
	})}
}

// Enabled 是否可用
func (g *RazorpayGateway) Enabled() bool {
	return g != nil && g.client.Enabled()
}

// Name 网关名称
func (g *RazorpayGateway) Name() string {
	return constants.PaymentMethodRazorpay
}

// CreateIntent 创建网关订单
func (g *RazorpayGateway) CreateIntent(ctx context.Context, amount models.Money, currency, receipt string, notes map[string]string) (GatewayIntent, error) {
	order, err := g.client.CreateOrder(ctx, razorpay.CreateOrderInput{
		Amount:   amount.Decimal,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return GatewayIntent{}, fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
	return GatewayIntent{
		GatewayOrderID: order.ID,
		Amount:         models.NewMoneyFromDecimal(razorpay.FromMinorAmount(order.Amount)),
		Currency:       order.Currency,
		KeyID:          g.client.KeyID(),
	}, nil
}

// VerifyPayment 校验 checkout 签名
func (g *RazorpayGateway) VerifyPayment(gatewayOrderID, paymentID, signature string) error {
	if err := g.client.VerifyPaymentSignature(gatewayOrderID, paymentID, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
	}
	return nil
}

// VerifyWebhook 校验回调签名
func (g *RazorpayGateway) VerifyWebhook(body []byte, signature string) error {
	if err := g.client.VerifyWebhookSignature(body, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
	}
	return nil
}

// ParseWebhook 解析回调事件
func (g *RazorpayGateway) ParseWebhook(body []byte) (GatewayWebhookEvent, error) {
	event, err := razorpay.ParseWebhookEvent(body)
	if err != nil {
		return GatewayWebhookEvent{}, newValidationError("body", err.Error())
	}
	return GatewayWebhookEvent{
		Event:          event.Event,
		PaymentID:      event.PaymentID,
		GatewayOrderID: event.OrderID,
		Raw:            event.Raw,
	}, nil
}

// Refund 退款
func (g *RazorpayGateway) Refund(ctx context.Context, paymentID string, amount models.Money) error {
	if _, err := g.client.Refund(ctx, paymentID, amount.Decimal); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
	return nil
}
