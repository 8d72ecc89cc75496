package shared

import (
	"errors"

	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/i18n"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
	Kind   string
}

// passwordPolicyViolation 密码策略错误携带翻译键与参数
type passwordPolicyViolation interface {
	error
	Key() string
	Args() []interface{}
}

// CatalogErrorRules 商品与购物车错误映射
var CatalogErrorRules = []MappedHandlerError{
	{Target: service.ErrEmptyCart, Code: response.CodeBadRequest, Key: "error.empty_cart", Kind: response.KindEmptyCart},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found", Kind: response.KindNotFound},
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound, Key: "error.cart_item_not_found", Kind: response.KindNotFound},
}

// OrderErrorRules 订单错误映射
var OrderErrorRules = []MappedHandlerError{
	{Target: service.ErrCartIntegrity, Code: response.CodeInternal, Key: "error.order_creation_failed", Kind: response.KindOrderCreationFailed},
	{Target: service.ErrOrderCreationFailed, Code: response.CodeInternal, Key: "error.order_creation_failed", Kind: response.KindOrderCreationFailed},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found", Kind: response.KindNotFound},
	{Target: service.ErrOrderTransitionInvalid, Code: response.CodeConflict, Key: "error.order_transition_invalid", Kind: response.KindConflict},
	{Target: service.ErrOrderStatusConflict, Code: response.CodeConflict, Key: "error.order_status_conflict", Kind: response.KindConflict},
	{Target: service.ErrOrderNotRefundable, Code: response.CodeConflict, Key: "error.order_not_refundable", Kind: response.KindConflict},
}

// PaymentErrorRules 支付错误映射
var PaymentErrorRules = []MappedHandlerError{
	{Target: service.ErrPaymentAmountMismatch, Code: response.CodeConflict, Key: "error.payment_amount_mismatch", Kind: response.KindConflict},
	{Target: service.ErrPaymentIntentNotFound, Code: response.CodeNotFound, Key: "error.payment_intent_not_found", Kind: response.KindNotFound},
	{Target: service.ErrPaymentGatewayDisabled, Code: response.CodeBadRequest, Key: "error.payment_gateway_disabled", Kind: response.KindValidation},
	{Target: service.ErrPaymentSignatureInvalid, Code: response.CodeBadRequest, Key: "error.payment_signature_invalid", Kind: response.KindValidation},
	{Target: service.ErrPaymentAlreadyUsed, Code: response.CodeConflict, Key: "error.payment_already_used", Kind: response.KindConflict},
	{Target: service.ErrPaymentGatewayFailed, Code: response.CodeInternal, Key: "error.payment_gateway_failed", Kind: response.KindInternal},
}

// ShipmentErrorRules 物流错误映射
var ShipmentErrorRules = []MappedHandlerError{
	{Target: service.ErrCourierDisabled, Code: response.CodeBadRequest, Key: "error.courier_disabled", Kind: response.KindValidation},
	{Target: service.ErrCourierFailed, Code: response.CodeInternal, Key: "error.courier_failed", Kind: response.KindInternal},
	{Target: service.ErrShipmentNotAllowed, Code: response.CodeConflict, Key: "error.shipment_not_allowed", Kind: response.KindConflict},
	{Target: service.ErrShipmentNotBooked, Code: response.CodeConflict, Key: "error.shipment_not_booked", Kind: response.KindConflict},
}

// AuthErrorRules 账号与验证码错误映射
var AuthErrorRules = []MappedHandlerError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid", Kind: response.KindValidation},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists", Kind: response.KindConflict},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid", Kind: response.KindUnauthorized},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_invalid", Kind: response.KindValidation},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized, Key: "error.user_disabled", Kind: response.KindUnauthorized},
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.token_invalid", Kind: response.KindUnauthorized},
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required", Kind: response.KindValidation},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid", Kind: response.KindValidation},
	{Target: service.ErrCaptchaDisabled, Code: response.CodeBadRequest, Key: "error.captcha_disabled", Kind: response.KindValidation},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Key: "error.password_invalid", Kind: response.KindValidation},
}

// GenericErrorRules 兜底错误映射，需放在最后
var GenericErrorRules = []MappedHandlerError{
	{Target: service.ErrValidation, Code: response.CodeBadRequest, Key: "error.bad_request", Kind: response.KindValidation},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found", Kind: response.KindNotFound},
}

// ServiceErrorRules 全部业务错误映射，顺序敏感
var ServiceErrorRules = ConcatMappedHandlerErrors(
	CatalogErrorRules,
	OrderErrorRules,
	PaymentErrorRules,
	ShipmentErrorRules,
	AuthErrorRules,
	GenericErrorRules,
)

// RespondMappedError 按映射表输出错误响应，未命中时使用兜底错误
func RespondMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		RespondErrorWithKind(c, response.CodeConflict, response.KindInsufficientStock, "error.insufficient_stock", gin.H{
			"product_id":   stockErr.ProductID,
			"product_name": stockErr.ProductName,
			"requested":    stockErr.Requested,
			"available":    stockErr.Available,
		}, nil, stockErr.ProductName, stockErr.Requested, stockErr.Available)
		return
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		RespondErrorWithKind(c, response.CodeBadRequest, response.KindValidation, "error.validation",
			gin.H{"field": validationErr.Field}, nil, validationErr.Field, validationErr.Message)
		return
	}
	var policyErr passwordPolicyViolation
	if errors.Is(err, service.ErrWeakPassword) && errors.As(err, &policyErr) {
		msg := i18n.T(i18n.ResolveLocale(c), policyErr.Key(), policyErr.Args()...)
		response.ErrorWithKind(c, response.CodeBadRequest, response.KindValidation, msg, gin.H{"field": "password"})
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			var cause error
			if rule.Code >= response.CodeInternal {
				cause = err
			}
			RespondErrorWithKind(c, rule.Code, rule.Kind, rule.Key, nil, cause)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// RespondServiceError 使用全部业务错误映射输出响应
func RespondServiceError(c *gin.Context, err error) {
	RespondMappedError(c, err, ServiceErrorRules, response.CodeInternal, "error.internal_error")
}

// ConcatMappedHandlerErrors 合并多组映射规则
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
