package models

import (
	"time"
)

// Order 订单表（金额创建后不可变，仅状态、支付与物流字段可更新）
type Order struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                    // 主键
	OrderNo         string     `gorm:"uniqueIndex;not null" json:"order_no"`                                    // 订单编号
	UserID          uint       `gorm:"index;not null" json:"user_id"`                                           // 用户ID
	Status          string     `gorm:"index;not null" json:"status"`                                            // 订单状态
	Currency        string     `gorm:"type:varchar(10);not null" json:"currency"`                               // 币种
	TotalAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`               // 订单总额（服务端计算）
	ShippingAddress string     `gorm:"type:text;not null" json:"shipping_address"`                              // 收货地址
	BillingAddress  string     `gorm:"type:text;not null" json:"billing_address"`                               // 账单地址
	Phone           string     `gorm:"type:varchar(32);not null" json:"phone"`                                  // 联系电话
	Notes           string     `gorm:"type:text" json:"notes"`                                                  // 备注
	PaymentStatus   string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"payment_status"` // 支付状态
	PaymentMethod   string     `gorm:"type:varchar(32)" json:"payment_method,omitempty"`                        // 支付方式
	PaymentID       string     `gorm:"type:varchar(100);index" json:"payment_id,omitempty"`                     // 网关支付ID
	GatewayOrderID  string     `gorm:"type:varchar(100);index" json:"gateway_order_id,omitempty"`               // 网关订单ID
	CourierPartner  string     `gorm:"type:varchar(50)" json:"courier_partner,omitempty"`                       // 物流商
	AWBNumber       string     `gorm:"type:varchar(100);index" json:"awb_number,omitempty"`                     // 运单号
	TrackingStatus  string     `gorm:"type:varchar(50)" json:"tracking_status,omitempty"`                       // 物流状态
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`                                                    // 发货时间
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`                                                  // 签收时间
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`                                                  // 取消时间
	RestockedAt     *time.Time `json:"restocked_at,omitempty"`                                                  // 取消回补库存时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                                 // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
