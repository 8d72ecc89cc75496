package dtdc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid   = errors.New("dtdc config invalid")
	ErrRequestFailed   = errors.New("dtdc request failed")
	ErrResponseInvalid = errors.New("dtdc response invalid")
	ErrBookingRejected = errors.New("dtdc booking rejected")
)

const (
	defaultAPIBaseURL = "https://api.dtdc.com"
	defaultTimeout    = 15 * time.Second
	bookPath          = "/api/customer/integration/consignment/softdata"
	trackPath         = "/api/customer/integration/consignment/track"
	serviceTypeID     = "B2C PRIORITY"
	loadType          = "NON-DOCUMENT"
)

// 状态常量
const (
	StatusBooked    = "booked"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
)

var pincodePattern = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)

// Config DTDC 接口配置。
type Config struct {
	APIKey        string
	ClientID      string
	Secret        string
	APIBaseURL    string
	OriginPincode string
	Timeout       time.Duration
}

// Client DTDC REST 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// BookingInput 运单预约输入。
type BookingInput struct {
	ReferenceNo   string
	Consignee     string
	Address       string
	Phone         string
	Pieces        int
	DeclaredValue decimal.Decimal
}

// Booking 运单预约结果。
type Booking struct {
	AWBNumber string
	Status    string
}

// Tracking 物流轨迹。
type Tracking struct {
	AWBNumber string
	Status    string
	RawStatus string
	Location  string
}

type consignment struct {
	CustomerCode            string             `json:"customer_code"`
	ServiceTypeID           string             `json:"service_type_id"`
	LoadType                string             `json:"load_type"`
	ConsignmentType         string             `json:"consignment_type"`
	NumPieces               int                `json:"num_pieces"`
	DeclaredValue           string             `json:"declared_value"`
	CustomerReferenceNumber string             `json:"customer_reference_number"`
	OriginDetails           addressDetails     `json:"origin_details"`
	DestinationDetails      destinationDetails `json:"destination_details"`
}

type addressDetails struct {
	Pincode string `json:"pincode"`
}

type destinationDetails struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line_1"`
	Pincode      string `json:"pincode"`
}

type bookingResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Success         bool   `json:"success"`
		ReferenceNumber string `json:"reference_number"`
		Message         string `json:"message"`
	} `json:"data"`
}

type trackingResponse struct {
	StatusCode  int `json:"statusCode"`
	TrackHeader struct {
		ShipmentNo string `json:"strShipmentNo"`
		Status     string `json:"strStatus"`
		Origin     string `json:"strOrigin"`
		Location   string `json:"strDestination"`
	} `json:"trackHeader"`
}

// NewClient 创建客户端。
func NewClient(cfg Config) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.Secret = strings.TrimSpace(cfg.Secret)
	cfg.OriginPincode = strings.TrimSpace(cfg.OriginPincode)
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

// Enabled 三项凭证齐全才启用。
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != "" && c.cfg.ClientID != "" && c.cfg.Secret != ""
}

// BookShipment 预约运单并返回运单号。
func (c *Client) BookShipment(ctx context.Context, input BookingInput) (*Booking, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: api_key, client_id and secret are required", ErrConfigInvalid)
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrConfigInvalid)
	}
	pieces := input.Pieces
	if pieces <= 0 {
		pieces = 1
	}
	request := map[string]interface{}{
		"consignments": []consignment{{
			CustomerCode:            c.cfg.ClientID,
			ServiceTypeID:           serviceTypeID,
			LoadType:                loadType,
			ConsignmentType:         "Forward",
			NumPieces:               pieces,
			DeclaredValue:           input.DeclaredValue.StringFixed(2),
			CustomerReferenceNumber: strings.TrimSpace(input.ReferenceNo),
			OriginDetails:           addressDetails{Pincode: c.cfg.OriginPincode},
			DestinationDetails: destinationDetails{
				Name:         strings.TrimSpace(input.Consignee),
				Phone:        strings.TrimSpace(input.Phone),
				AddressLine1: address,
				Pincode:      ExtractPincode(address),
			},
		}},
	}

	var resp bookingResponse
	if err := c.doJSON(ctx, bookPath, request, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty booking data", ErrResponseInvalid)
	}
	first := resp.Data[0]
	if !first.Success || strings.TrimSpace(first.ReferenceNumber) == "" {
		return nil, fmt.Errorf("%w: %s", ErrBookingRejected, strings.TrimSpace(first.Message))
	}
	return &Booking{
		AWBNumber: strings.TrimSpace(first.ReferenceNumber),
		Status:    StatusBooked,
	}, nil
}

// Track 查询运单轨迹。
func (c *Client) Track(ctx context.Context, awb string) (*Tracking, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: api_key, client_id and secret are required", ErrConfigInvalid)
	}
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, fmt.Errorf("%w: awb is required", ErrConfigInvalid)
	}
	var resp trackingResponse
	if err := c.doJSON(ctx, trackPath, map[string]string{"trkType": "cnno", "strcnno": awb}, &resp); err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(resp.TrackHeader.Status)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing track status", ErrResponseInvalid)
	}
	return &Tracking{
		AWBNumber: awb,
		Status:    mapTrackingStatus(raw),
		RawStatus: raw,
		Location:  strings.TrimSpace(resp.TrackHeader.Location),
	}, nil
}

// ExtractPincode 从地址中提取 6 位邮编。
func ExtractPincode(address string) string {
	return pincodePattern.FindString(address)
}

func mapTrackingStatus(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "not delivered"), strings.Contains(lower, "undelivered"):
		return StatusInTransit
	case strings.Contains(lower, "delivered"):
		return StatusDelivered
	case strings.Contains(lower, "booked"), strings.Contains(lower, "softdata"):
		return StatusBooked
	default:
		return StatusInTransit
	}
}

func (c *Client) doJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request failed", ErrRequestFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("x-client-id", c.cfg.ClientID)
	req.Header.Set("x-client-secret", c.cfg.Secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d", ErrRequestFailed, resp.StatusCode)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return nil
}
