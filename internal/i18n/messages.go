package i18n

var enUS = map[string]string{
	"error.bad_request":                "Invalid request parameters",
	"error.unauthorized":               "Please log in first",
	"error.forbidden":                  "You do not have permission to perform this action",
	"error.not_found":                  "Resource not found",
	"error.internal_error":             "Internal server error",
	"error.too_many_requests":          "Too many requests, please retry in %d seconds",
	"error.jwt_secret_missing":         "Authentication is not configured",
	"error.auth_header_missing":        "Authorization header is missing",
	"error.auth_header_invalid":        "Authorization header is malformed",
	"error.token_invalid":              "Login has expired, please log in again",
	"error.token_revoked":              "Login has been revoked, please log in again",
	"error.user_disabled":              "This account has been disabled",
	"error.user_not_found":             "User not found",
	"error.user_role_invalid":          "Unknown user role",
	"error.user_status_invalid":        "Unknown user status",
	"error.validation":                 "Invalid %s: %s",
	"error.product_not_found":          "Product not found or unavailable",
	"error.cart_item_not_found":        "Cart item not found",
	"error.order_not_found":            "Order not found",
	"error.empty_cart":                 "Your cart is empty",
	"error.insufficient_stock":         "Only %[3]d unit(s) of %[1]s available, %[2]d requested",
	"error.order_creation_failed":      "Order could not be created, please retry",
	"error.order_transition_invalid":   "Order status change is not allowed",
	"error.order_status_conflict":      "Order was updated by another request, please retry",
	"error.order_not_refundable":       "Order is not eligible for refund",
	"error.payment_intent_not_found":   "Payment session not found",
	"error.payment_gateway_disabled":   "Online payment is not available",
	"error.payment_gateway_failed":     "Payment provider request failed",
	"error.payment_signature_invalid":  "Payment verification failed",
	"error.payment_already_used":       "Payment has already been processed",
	"error.payment_amount_mismatch":    "Cart changed after payment started, please contact support",
	"error.courier_disabled":           "Courier service is not available",
	"error.courier_failed":             "Courier request failed",
	"error.shipment_not_allowed":       "Order cannot be shipped in its current status",
	"error.shipment_not_booked":        "Shipment has not been booked",
	"error.email_invalid":              "Email address is invalid",
	"error.email_exists":               "Email is already registered",
	"error.login_invalid":              "Email or password is incorrect",
	"error.password_invalid":           "Current password is incorrect",
	"error.password_required":          "Password is required",
	"error.password_min_length":        "Password must be at least %d characters",
	"error.password_require_upper":     "Password must contain an uppercase letter",
	"error.password_require_lower":     "Password must contain a lowercase letter",
	"error.password_require_number":    "Password must contain a number",
	"error.password_require_special":   "Password must contain a special character",
	"error.captcha_required":           "Please complete the captcha",
	"error.captcha_invalid":            "Captcha is incorrect or expired",
	"error.captcha_disabled":           "Captcha is not enabled",
	"notify.order_status.subject":      "Order %s update",
	"notify.order_status.body":         "Hi %s, your order %s is now %s.",
	"notify.order_status.body_tracked": "Hi %s, your order %s is now %s. %s AWB: %s",
	"order.status.pending":             "pending",
	"order.status.confirmed":           "confirmed",
	"order.status.processing":          "processing",
	"order.status.shipped":             "shipped",
	"order.status.delivered":           "delivered",
	"order.status.cancelled":           "cancelled",
}

var zhCN = map[string]string{
	"error.bad_request":                "请求参数错误",
	"error.unauthorized":               "请先登录",
	"error.forbidden":                  "无权执行该操作",
	"error.not_found":                  "资源不存在",
	"error.internal_error":             "服务器内部错误",
	"error.too_many_requests":          "请求过于频繁，请 %d 秒后重试",
	"error.jwt_secret_missing":         "认证未配置",
	"error.auth_header_missing":        "缺少认证信息",
	"error.auth_header_invalid":        "认证信息格式错误",
	"error.token_invalid":              "登录已过期，请重新登录",
	"error.token_revoked":              "登录已失效，请重新登录",
	"error.user_disabled":              "账号已被禁用",
	"error.user_not_found":             "用户不存在",
	"error.user_role_invalid":          "未知用户角色",
	"error.user_status_invalid":        "未知用户状态",
	"error.validation":                 "参数 %s 无效：%s",
	"error.product_not_found":          "商品不存在或已下架",
	"error.cart_item_not_found":        "购物车条目不存在",
	"error.order_not_found":            "订单不存在",
	"error.empty_cart":                 "购物车为空",
	"error.insufficient_stock":         "%[1]s 库存仅剩 %[3]d 件，需要 %[2]d 件",
	"error.order_creation_failed":      "订单创建失败，请重试",
	"error.order_transition_invalid":   "不允许的订单状态变更",
	"error.order_status_conflict":      "订单已被其他操作更新，请重试",
	"error.order_not_refundable":       "订单不满足退款条件",
	"error.payment_intent_not_found":   "支付会话不存在",
	"error.payment_gateway_disabled":   "在线支付未开启",
	"error.payment_gateway_failed":     "支付渠道请求失败",
	"error.payment_signature_invalid":  "支付校验失败",
	"error.payment_already_used":       "该支付已处理",
	"error.payment_amount_mismatch":    "支付后购物车发生变化，请联系客服",
	"error.courier_disabled":           "物流服务未开启",
	"error.courier_failed":             "物流请求失败",
	"error.shipment_not_allowed":       "当前订单状态不可发货",
	"error.shipment_not_booked":        "运单尚未创建",
	"error.email_invalid":              "邮箱格式错误",
	"error.email_exists":               "邮箱已注册",
	"error.login_invalid":              "邮箱或密码错误",
	"error.password_invalid":           "当前密码错误",
	"error.password_required":          "请输入密码",
	"error.password_min_length":        "密码至少 %d 位",
	"error.password_require_upper":     "密码需包含大写字母",
	"error.password_require_lower":     "密码需包含小写字母",
	"error.password_require_number":    "密码需包含数字",
	"error.password_require_special":   "密码需包含特殊字符",
	"error.captcha_required":           "请完成验证码",
	"error.captcha_invalid":            "验证码错误或已过期",
	"error.captcha_disabled":           "验证码未开启",
	"notify.order_status.subject":      "订单 %s 状态更新",
	"notify.order_status.body":         "%s，您好，订单 %s 当前状态：%s。",
	"notify.order_status.body_tracked": "%s，您好，订单 %s 当前状态：%s。%s 运单号：%s",
	"order.status.pending":             "待确认",
	"order.status.confirmed":           "已确认",
	"order.status.processing":          "处理中",
	"order.status.shipped":             "已发货",
	"order.status.delivered":           "已签收",
	"order.status.cancelled":           "已取消",
}
