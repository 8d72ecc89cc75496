package models

import (
	"time"
)

// Product 商品表（下架即软删除，不做物理删除）
type Product struct {
	ID                 uint        `gorm:"primarykey" json:"id"`                                                                               // 主键
	Name               string      `gorm:"type:varchar(255);not null" json:"name"`                                                             // 商品名称
	Description        string      `gorm:"type:text" json:"description"`                                                                       // 商品描述
	Category           string      `gorm:"type:varchar(100);index" json:"category"`                                                            // 分类
	Tags               StringArray `gorm:"type:json" json:"tags"`                                                                              // 标签数组
	ImageURL           string      `gorm:"type:varchar(500)" json:"image_url"`                                                                 // 主图
	SpecificationsJSON JSON        `gorm:"type:json" json:"specifications"`                                                                    // 规格参数
	Price              Money       `gorm:"type:decimal(20,2);not null;default:0" json:"price"`                                                 // 售价
	StockQuantity      int         `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock_quantity >= 0" json:"stock_quantity"` // 库存
	IsActive           bool        `gorm:"default:true;index" json:"is_active"`                                                                // 是否上架
	CreatedAt          time.Time   `gorm:"index" json:"created_at"`                                                                            // 创建时间
	UpdatedAt          time.Time   `json:"updated_at"`                                                                                         // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
