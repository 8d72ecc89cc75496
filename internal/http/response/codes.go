package response

const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)

// 稳定错误类型，客户端据此分支处理
const (
	KindValidation          = "validation_error"
	KindNotFound            = "not_found"
	KindEmptyCart           = "empty_cart"
	KindInsufficientStock   = "insufficient_stock"
	KindOrderCreationFailed = "order_creation_failed"
	KindUnauthorized        = "unauthorized"
	KindForbidden           = "forbidden"
	KindConflict            = "conflict"
	KindRateLimited         = "rate_limited"
	KindInternal            = "internal_error"
)

// KindForCode 按业务码推断默认错误类型
func KindForCode(code int) string {
	switch code {
	case CodeBadRequest:
		return KindValidation
	case CodeUnauthorized:
		return KindUnauthorized
	case CodeForbidden:
		return KindForbidden
	case CodeNotFound:
		return KindNotFound
	case CodeConflict:
		return KindConflict
	case CodeTooManyRequests:
		return KindRateLimited
	default:
		return KindInternal
	}
}
