package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/medcart/internal/constants"
	"github.com/medcart/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	ResolveContactByOrderID(orderID uint) (OrderContact, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	ListTrackable(limit int) ([]models.Order, error)
	UpdateFields(id uint, updates map[string]interface{}) (int64, error)
	UpdateFieldsIf(id uint, expected map[string]interface{}, updates map[string]interface{}) (int64, error)
	MarkRestocked(id uint, at time.Time) (int64, error)
	WithTx(tx *gorm.DB) OrderRepository
}

// OrderContact 订单通知所需的收件信息
type OrderContact struct {
	OrderNo     string
	Email       string
	DisplayName string
	Locale      string
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func withItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ResolveContactByOrderID 根据订单 ID 解析状态通知的收件人
func (r *GormOrderRepository) ResolveContactByOrderID(orderID uint) (OrderContact, error) {
	if orderID == 0 {
		return OrderContact{}, nil
	}
	var row struct {
		OrderNo     string
		Email       string
		DisplayName string
		Locale      string
	}
	err := r.db.Model(&models.Order{}).
		Select("orders.order_no, users.email, users.display_name, users.locale").
		Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.id = ?", orderID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderContact{}, nil
		}
		return OrderContact{}, err
	}
	return OrderContact{
		OrderNo:     row.OrderNo,
		Email:       strings.TrimSpace(row.Email),
		DisplayName: row.DisplayName,
		Locale:      row.Locale,
	}, nil
}

func applyOrderFilter(query *gorm.DB, filter OrderListFilter) *gorm.DB {
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if paymentStatus := strings.TrimSpace(filter.PaymentStatus); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}
	return query
}

func (r *GormOrderRepository) list(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := applyOrderFilter(r.db.Model(&models.Order{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := withItems(query).Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByUser 获取用户订单列表（UserID 必填）
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return []models.Order{}, 0, nil
	}
	return r.list(filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	return r.list(filter)
}

// ListTrackable 已有运单号且未签收/取消的订单，按更新时间升序
func (r *GormOrderRepository) ListTrackable(limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	err := r.db.Model(&models.Order{}).
		Where("awb_number <> ''").
		Where("status NOT IN ?", []string{constants.OrderStatusDelivered, constants.OrderStatusCancelled}).
		Where("tracking_status <> ? OR tracking_status IS NULL", constants.TrackingStatusDelivered).
		Order("updated_at asc, id asc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateFields 局部更新订单字段，返回影响行数
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	result := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateFieldsIf 仅当 expected 中的字段值全部匹配时更新，返回影响行数
func (r *GormOrderRepository) UpdateFieldsIf(id uint, expected map[string]interface{}, updates map[string]interface{}) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	query := r.db.Model(&models.Order{}).Where("id = ?", id)
	if len(expected) > 0 {
		query = query.Where(expected)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkRestocked 标记订单库存已回补，已标记过时影响行数为 0
func (r *GormOrderRepository) MarkRestocked(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND restocked_at IS NULL", id).
		Updates(map[string]interface{}{
			"restocked_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
