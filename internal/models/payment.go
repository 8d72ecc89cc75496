package models

import (
	"time"
)

// PaymentIntent 支付意图（绑定网关订单、用户与金额）
type PaymentIntent struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                           // 主键
	UserID          uint       `gorm:"index;not null" json:"user_id"`                                  // 用户ID
	Gateway         string     `gorm:"type:varchar(32);not null" json:"gateway"`                       // 网关（razorpay）
	GatewayOrderID  string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"gateway_order_id"` // 网关订单ID
	Receipt         string     `gorm:"type:varchar(64);not null" json:"receipt"`                       // 商户收据号
	Amount          Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                      // 金额
	Currency        string     `gorm:"type:varchar(10);not null" json:"currency"`                      // 币种
	Status          string     `gorm:"type:varchar(20);index;not null" json:"status"`                  // 状态
	PaymentID       string     `gorm:"type:varchar(100);index" json:"payment_id,omitempty"`            // 网关支付ID
	OrderID         *uint      `gorm:"index" json:"order_id,omitempty"`                                // 生成的订单ID
	ProviderPayload JSON       `gorm:"type:json" json:"-"`                                             // 网关回调数据
	PaidAt          *time.Time `json:"paid_at,omitempty"`                                              // 支付时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (PaymentIntent) TableName() string {
	return "payment_intents"
}
