package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses 全部合法订单状态
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// 订单支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunding = "refunding"
	PaymentStatusRefunded  = "refunded"
)

// 支付意图状态常量
const (
	PaymentIntentStatusCreated  = "created"
	PaymentIntentStatusPaid     = "paid"
	PaymentIntentStatusFailed   = "failed"
	PaymentIntentStatusConsumed = "consumed"
)

// 支付方式常量
const (
	PaymentMethodRazorpay = "razorpay"
)

// Razorpay Webhook 事件常量
const (
	RazorpayEventPaymentCaptured = "payment.captured"
	RazorpayEventPaymentFailed   = "payment.failed"
	RazorpayEventOrderPaid       = "order.paid"
)

// 物流状态常量
const (
	TrackingStatusBooked    = "booked"
	TrackingStatusInTransit = "in_transit"
	TrackingStatusDelivered = "delivered"
)

// 物流商常量
const (
	CourierPartnerDTDC = "dtdc"
)

// 用户角色常量
const (
	UserRoleCustomer   = "customer"
	UserRoleSupport    = "support"
	UserRoleOperations = "operations"
	UserRoleAdmin      = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 币种常量
const (
	CurrencyINR = "INR"
)

// 队列常量
const (
	QueueDefault             = "default"
	TaskOrderStatusNotify    = "order:status_notify"
	TaskOrderBookShipment    = "order:book_shipment"
	TaskOrderRefreshTracking = "order:refresh_tracking"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "mc"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
