package service

import (
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CartLine 购物车展示行（价格与库存取自当前商品）
type CartLine struct {
	ItemID        uint         `json:"item_id"`
	ProductID     uint         `json:"product_id"`
	ProductName   string       `json:"product_name"`
	ImageURL      string       `json:"image_url"`
	UnitPrice     models.Money `json:"unit_price"`
	Quantity      int          `json:"quantity"`
	LineTotal     models.Money `json:"line_total"`
	StockQuantity int          `json:"stock_quantity"`
	InStock       bool         `json:"in_stock"`
}

// CartView 购物车视图
type CartView struct {
	Items         []CartLine   `json:"items"`
	ItemCount     int          `json:"item_count"`
	TotalQuantity int          `json:"total_quantity"`
	Subtotal      models.Money `json:"subtotal"`
}

// AddItem 加入购物车（同一商品累加数量，不校验库存）
func (s *CartService) AddItem(userID, productID uint, quantity int) (*models.CartItem, error) {
	if userID == 0 {
		return nil, newValidationError("user_id", "is required")
	}
	if productID == 0 {
		return nil, newValidationError("product_id", "is required")
	}
	if quantity < 1 {
		return nil, newValidationError("quantity", "must be at least 1")
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	item, err := s.cartRepo.AddQuantity(userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// UpdateItem 修改购物车项数量，数量小于等于 0 时删除
func (s *CartService) UpdateItem(userID, itemID uint, quantity int) error {
	if userID == 0 {
		return newValidationError("user_id", "is required")
	}
	if quantity <= 0 {
		return s.RemoveItem(userID, itemID)
	}
	affected, err := s.cartRepo.UpdateQuantity(itemID, userID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// RemoveItem 删除购物车项（幂等）
func (s *CartService) RemoveItem(userID, itemID uint) error {
	if userID == 0 {
		return newValidationError("user_id", "is required")
	}
	return s.cartRepo.DeleteByIDAndUser(itemID, userID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return newValidationError("user_id", "is required")
	}
	return s.cartRepo.ClearByUser(userID)
}

// View 购物车视图（下架或已删除商品的行不展示、不计入合计）
func (s *CartService) View(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, newValidationError("user_id", "is required")
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(eligibleCartItems(items)), nil
}

func eligibleCartItems(items []models.CartItem) []models.CartItem {
	result := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive {
			continue
		}
		result = append(result, item)
	}
	return result
}

func buildCartView(items []models.CartItem) *CartView {
	view := &CartView{
		Items:    make([]CartLine, 0, len(items)),
		Subtotal: models.NewMoneyFromDecimal(decimal.Zero),
	}
	for _, item := range items {
		lineTotal := item.Product.Price.MulQuantity(item.Quantity)
		view.Items = append(view.Items, CartLine{
			ItemID:        item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.Product.Name,
			ImageURL:      item.Product.ImageURL,
			UnitPrice:     item.Product.Price,
			Quantity:      item.Quantity,
			LineTotal:     lineTotal,
			StockQuantity: item.Product.StockQuantity,
			InStock:       item.Product.StockQuantity >= item.Quantity,
		})
		view.TotalQuantity += item.Quantity
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	view.ItemCount = len(view.Items)
	return view
}
