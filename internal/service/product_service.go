package service

import (
	"context"
	"strings"
	"time"

	"github.com/medcart/internal/cache"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品目录服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ProductQuery 商品列表查询参数
type ProductQuery struct {
	Page     int
	PageSize int
	Category string
	Search   string
	Tag      string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	Name           string
	Description    string
	Category       string
	Tags           []string
	ImageURL       string
	Specifications map[string]interface{}
	Price          models.Money
	StockQuantity  int
	IsActive       *bool
}

// UpdateProductInput 更新商品输入（nil 字段不修改）
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Category       *string
	Tags           *[]string
	ImageURL       *string
	Specifications map[string]interface{}
	Price          *models.Money
	IsActive       *bool
}

func (q ProductQuery) toFilter(onlyActive bool) (repository.ProductListFilter, error) {
	if q.PriceMin != nil && q.PriceMin.IsNegative() {
		return repository.ProductListFilter{}, newValidationError("price_min", "must not be negative")
	}
	if q.PriceMax != nil && q.PriceMax.IsNegative() {
		return repository.ProductListFilter{}, newValidationError("price_max", "must not be negative")
	}
	if q.PriceMin != nil && q.PriceMax != nil && q.PriceMin.GreaterThan(*q.PriceMax) {
		return repository.ProductListFilter{}, newValidationError("price_min", "must not exceed price_max")
	}
	return repository.ProductListFilter{
		Page:       q.Page,
		PageSize:   q.PageSize,
		Category:   strings.TrimSpace(q.Category),
		Search:     strings.TrimSpace(q.Search),
		Tag:        strings.TrimSpace(q.Tag),
		PriceMin:   q.PriceMin,
		PriceMax:   q.PriceMax,
		OnlyActive: onlyActive,
	}, nil
}

// ListPublic 前台商品列表（仅上架商品）
func (s *ProductService) ListPublic(query ProductQuery) ([]models.Product, int64, error) {
	filter, err := query.toFilter(true)
	if err != nil {
		return nil, 0, err
	}
	return s.productRepo.List(filter)
}

// ListAdmin 后台商品列表（含下架商品）
func (s *ProductService) ListAdmin(query ProductQuery) ([]models.Product, int64, error) {
	filter, err := query.toFilter(false)
	if err != nil {
		return nil, 0, err
	}
	return s.productRepo.List(filter)
}

// ListCategories 上架商品的分类列表
func (s *ProductService) ListCategories() ([]string, error) {
	return s.productRepo.ListCategories()
}

// GetActiveProduct 获取上架商品，下架或不存在均视为未找到
func (s *ProductService) GetActiveProduct(productID uint) (*models.Product, error) {
	if productID == 0 {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetPublic 前台商品详情（Redis 旁路缓存）
func (s *ProductService) GetPublic(ctx context.Context, productID uint) (*models.Product, error) {
	if productID == 0 {
		return nil, ErrProductNotFound
	}
	cached, hit, err := cache.GetProduct(ctx, productID)
	if err != nil {
		logger.Warnw("product_cache_read_failed", "product_id", productID, "error", err)
	}
	if hit && cached != nil {
		if !cached.IsActive {
			return nil, ErrProductNotFound
		}
		return cached, nil
	}

	product, err := s.GetActiveProduct(productID)
	if err != nil {
		return nil, err
	}
	if err := cache.SetProduct(ctx, product); err != nil {
		logger.Warnw("product_cache_write_failed", "product_id", productID, "error", err)
	}
	return product, nil
}

// GetAdmin 后台商品详情
func (s *ProductService) GetAdmin(productID uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	if !input.Price.IsPositive() {
		return nil, newValidationError("price", "must be greater than 0")
	}
	if input.StockQuantity < 0 {
		return nil, newValidationError("stock_quantity", "must not be negative")
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	now := time.Now()
	product := &models.Product{
		Name:               name,
		Description:        strings.TrimSpace(input.Description),
		Category:           strings.TrimSpace(input.Category),
		Tags:               models.StringArray(normalizeTags(input.Tags)),
		ImageURL:           strings.TrimSpace(input.ImageURL),
		SpecificationsJSON: models.JSON(input.Specifications),
		Price:              models.NewMoneyFromDecimal(input.Price.Decimal),
		StockQuantity:      input.StockQuantity,
		IsActive:           isActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 局部更新商品（改价不影响历史订单项）
func (s *ProductService) Update(ctx context.Context, productID uint, input UpdateProductInput) (*models.Product, error) {
	if _, err := s.GetAdmin(productID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, newValidationError("name", "is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Tags != nil {
		updates["tags"] = models.StringArray(normalizeTags(*input.Tags))
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.Specifications != nil {
		updates["specifications_json"] = models.JSON(input.Specifications)
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, newValidationError("price", "must be greater than 0")
		}
		updates["price"] = models.NewMoneyFromDecimal(input.Price.Decimal)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, newValidationError("", "no fields to update")
	}

	updates["updated_at"] = time.Now()
	if err := s.productRepo.UpdateFields(productID, updates); err != nil {
		return nil, err
	}
	s.invalidate(ctx, productID)
	return s.GetAdmin(productID)
}

// Deactivate 下架商品
func (s *ProductService) Deactivate(ctx context.Context, productID uint) error {
	if _, err := s.GetAdmin(productID); err != nil {
		return err
	}
	if err := s.productRepo.UpdateFields(productID, map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}); err != nil {
		return err
	}
	s.invalidate(ctx, productID)
	return nil
}

// AdjustStock 调整库存（结果不得小于 0）
func (s *ProductService) AdjustStock(ctx context.Context, productID uint, delta int) (*models.Product, error) {
	product, err := s.GetAdmin(productID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return product, nil
	}
	affected, err := s.productRepo.AdjustStock(productID, delta)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   -delta,
			Available:   product.StockQuantity,
		}
	}
	s.invalidate(ctx, productID)
	return s.GetAdmin(productID)
}

func (s *ProductService) invalidate(ctx context.Context, productID uint) {
	if err := cache.InvalidateProduct(ctx, productID); err != nil {
		logger.Warnw("product_cache_invalidate_failed", "product_id", productID, "error", err)
	}
}

func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
