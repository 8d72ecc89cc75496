package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("razorpay config invalid")
	ErrRequestFailed    = errors.New("razorpay request failed")
	ErrResponseInvalid  = errors.New("razorpay response invalid")
	ErrSignatureInvalid = errors.New("razorpay signature invalid")
)

const (
	defaultAPIBaseURL = "https://api.razorpay.com"
	defaultTimeout    = 12 * time.Second
	// 收据号最长 40 字符
	maxReceiptLength = 40
)

// Config Razorpay 网关配置。
type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	APIBaseURL    string
	Timeout       time.Duration
}

// Client Razorpay REST 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// CreateOrderInput 创建网关订单输入。
type CreateOrderInput struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order 网关订单。
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Refund 退款结果。
type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// WebhookEvent Webhook 解析结果。
type WebhookEvent struct {
	Event     string
	PaymentID string
	OrderID   string
	Status    string
	Amount    decimal.Decimal
	Raw       map[string]interface{}
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Status   string `json:"status"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// NewClient 创建客户端。
func NewClient(cfg Config) *Client {
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	cfg.KeySecret = strings.TrimSpace(cfg.KeySecret)
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled 是否已配置密钥。
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.KeyID != "" && c.cfg.KeySecret != ""
}

// KeyID 返回前端 checkout 所需的公开 key。
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.cfg.KeyID
}

// CreateOrder 创建网关订单（金额以 paise 提交）。
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: key_id and key_secret are required", ErrConfigInvalid)
	}
	minor, err := ToMinorAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	receipt := strings.TrimSpace(input.Receipt)
	if len(receipt) > maxReceiptLength {
		receipt = receipt[:maxReceiptLength]
	}

	payload := map[string]interface{}{
		"amount":   minor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(input.Notes) > 0 {
		payload["notes"] = input.Notes
	}
	var order Order
	if err := c.doJSON(ctx, http.MethodPost, "/v1/orders", payload, &order); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.ID) == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}
	return &order, nil
}

// Refund 对已捕获支付发起退款。
func (c *Client) Refund(ctx context.Context, paymentID string, amount decimal.Decimal) (*Refund, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: key_id and key_secret are required", ErrConfigInvalid)
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment_id is required", ErrConfigInvalid)
	}
	minor, err := ToMinorAmount(amount)
	if err != nil {
		return nil, err
	}
	var refund Refund
	if err := c.doJSON(ctx, http.MethodPost, "/v1/payments/"+paymentID+"/refund", map[string]interface{}{
		"amount": minor,
	}, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// VerifyPaymentSignature 校验 checkout 回传签名：HMAC_SHA256(order_id|payment_id, key_secret)。
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if c == nil || c.cfg.KeySecret == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	if orderID == "" || paymentID == "" {
		return ErrSignatureInvalid
	}
	expected := computeSignature(c.cfg.KeySecret, []byte(orderID+"|"+paymentID))
	if !signatureEqual(expected, signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// VerifyWebhookSignature 校验 Webhook 签名：HMAC_SHA256(body, webhook_secret)。
func (c *Client) VerifyWebhookSignature(body []byte, signature string) error {
	if c == nil || c.cfg.WebhookSecret == "" {
		return fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	expected := computeSignature(c.cfg.WebhookSecret, body)
	if !signatureEqual(expected, signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseWebhookEvent 解析 Webhook 事件体。
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode webhook failed", ErrResponseInvalid)
	}
	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	entity := payload.Payload.Payment.Entity
	orderID := strings.TrimSpace(entity.OrderID)
	if orderID == "" {
		orderID = strings.TrimSpace(payload.Payload.Order.Entity.ID)
	}
	return &WebhookEvent{
		Event:     strings.TrimSpace(payload.Event),
		PaymentID: strings.TrimSpace(entity.ID),
		OrderID:   orderID,
		Status:    strings.TrimSpace(entity.Status),
		Amount:    FromMinorAmount(entity.Amount),
		Raw:       raw,
	}, nil
}

// ToMinorAmount 元转 paise。
func ToMinorAmount(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	minor := amount.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision is invalid", ErrConfigInvalid)
	}
	return minor.IntPart(), nil
}

// FromMinorAmount paise 转元。
func FromMinorAmount(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload interface{}, dest interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode request failed", ErrRequestFailed)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("%w: http %d %s: %s", ErrRequestFailed, resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
		}
		return fmt.Errorf("%w: http %d", ErrRequestFailed, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return nil
}

func computeSignature(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func signatureEqual(expected, actual string) bool {
	actual = strings.ToLower(strings.TrimSpace(actual))
	if actual == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(actual))
}
