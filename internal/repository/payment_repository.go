package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/medcart/internal/models"

	"gorm.io/gorm"
)

// PaymentIntentRepository 支付意图数据访问接口
type PaymentIntentRepository interface {
	Create(intent *models.PaymentIntent) error
	GetByGatewayOrderID(gatewayOrderID string) (*models.PaymentIntent, error)
	GetByGatewayOrderIDAndUser(gatewayOrderID string, userID uint) (*models.PaymentIntent, error)
	TransitionStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) PaymentIntentRepository
}

// GormPaymentIntentRepository GORM 实现
type GormPaymentIntentRepository struct {
	db *gorm.DB
}

// NewPaymentIntentRepository 创建支付意图仓库
func NewPaymentIntentRepository(db *gorm.DB) *GormPaymentIntentRepository {
	return &GormPaymentIntentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentIntentRepository) WithTx(tx *gorm.DB) PaymentIntentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentIntentRepository{db: tx}
}

// Create 创建支付意图
func (r *GormPaymentIntentRepository) Create(intent *models.PaymentIntent) error {
	return r.db.Create(intent).Error
}

// GetByGatewayOrderID 根据网关订单号获取
func (r *GormPaymentIntentRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.PaymentIntent, error) {
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("gateway_order_id = ?", gatewayOrderID).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetByGatewayOrderIDAndUser 按归属获取支付意图
func (r *GormPaymentIntentRepository) GetByGatewayOrderIDAndUser(gatewayOrderID string, userID uint) (*models.PaymentIntent, error) {
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" || userID == 0 {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("gateway_order_id = ? AND user_id = ?", gatewayOrderID, userID).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// TransitionStatus 条件流转状态：仅当当前状态属于 fromStatuses 时更新，返回影响行数
func (r *GormPaymentIntentRepository) TransitionStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	updates["updated_at"] = time.Now()
	query := r.db.Model(&models.PaymentIntent{}).Where("id = ?", id)
	if len(fromStatuses) > 0 {
		query = query.Where("status IN ?", fromStatuses)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
