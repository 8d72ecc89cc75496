package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrCartItemNotFound        = errors.New("cart item not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrPaymentIntentNotFound   = errors.New("payment intent not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrOrderCreationFailed     = errors.New("order creation failed")
	ErrCartIntegrity           = errors.New("cart integrity violated")
	ErrOrderTransitionInvalid  = errors.New("order status transition not allowed")
	ErrOrderStatusConflict     = errors.New("order status changed concurrently")
	ErrOrderNotRefundable      = errors.New("order not refundable")
	ErrPaymentGatewayDisabled  = errors.New("payment gateway disabled")
	ErrPaymentSignatureInvalid = errors.New("payment signature invalid")
	ErrPaymentAlreadyUsed      = errors.New("payment already used")
	ErrPaymentAmountMismatch   = errors.New("payment amount mismatch")
	ErrPaymentGatewayFailed    = errors.New("payment gateway request failed")
	ErrCourierDisabled         = errors.New("courier disabled")
	ErrCourierFailed           = errors.New("courier request failed")
	ErrShipmentNotAllowed      = errors.New("shipment not allowed for order status")
	ErrShipmentNotBooked       = errors.New("shipment not booked")
	ErrInvalidEmail            = errors.New("invalid email")
	ErrEmailExists             = errors.New("email already exists")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidPassword         = errors.New("invalid password")
	ErrUserDisabled            = errors.New("user disabled")
	ErrWeakPassword            = errors.New("weak password")
	ErrInvalidToken            = errors.New("invalid token")
	ErrTokenRevoked            = fmt.Errorf("token revoked: %w", ErrInvalidToken)
	ErrCaptchaRequired         = errors.New("captcha required")
	ErrCaptchaInvalid          = errors.New("captcha invalid")
	ErrCaptchaDisabled         = errors.New("captcha disabled")
)

// ValidationError 字段校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is 兼容 errors.Is(err, ErrValidation)
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError 库存不足详情
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

// Is 兼容 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
