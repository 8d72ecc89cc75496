package admin

import (
	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name           string                 `json:"name" binding:"required,max=255"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category" binding:"omitempty,max=100"`
	Tags           []string               `json:"tags"`
	ImageURL       string                 `json:"image_url" binding:"omitempty,max=500"`
	Specifications map[string]interface{} `json:"specifications"`
	Price          *models.Money          `json:"price" binding:"required"`
	StockQuantity  int                    `json:"stock_quantity" binding:"gte=0"`
	IsActive       *bool                  `json:"is_active"`
}

// UpdateProductRequest 更新商品请求（缺省字段不修改）
type UpdateProductRequest struct {
	Name           *string                `json:"name" binding:"omitempty,min=1,max=255"`
	Description    *string                `json:"description"`
	Category       *string                `json:"category" binding:"omitempty,max=100"`
	Tags           *[]string              `json:"tags"`
	ImageURL       *string                `json:"image_url" binding:"omitempty,max=500"`
	Specifications map[string]interface{} `json:"specifications"`
	Price          *models.Money          `json:"price"`
	IsActive       *bool                  `json:"is_active"`
}

// AdjustStockRequest 库存调整请求（正数入库，负数出库）
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// GetAdminProducts 后台商品列表（含下架）
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	query := service.ProductQuery{
		Page:     page,
		PageSize: pageSize,
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
	}
	products, total, err := h.ProductService.ListAdmin(query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 后台商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdmin(productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Tags:           req.Tags,
		ImageURL:       req.ImageURL,
		Specifications: req.Specifications,
		Price:          *req.Price,
		StockQuantity:  req.StockQuantity,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_created", "operator_id", currentUserID(c), "product_id", product.ID)
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), productID, service.UpdateProductInput{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Tags:           req.Tags,
		ImageURL:       req.ImageURL,
		Specifications: req.Specifications,
		Price:          req.Price,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 下架商品（保留历史订单引用）
func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Deactivate(c.Request.Context(), productID); err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_deactivated", "operator_id", currentUserID(c), "product_id", productID)
	response.Success(c, gin.H{"deactivated": true})
}

// AdjustProductStock 调整商品库存
func (h *Handler) AdjustProductStock(c *gin.Context) {
	productID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	product, err := h.ProductService.AdjustStock(c.Request.Context(), productID, req.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_stock_adjusted",
		"operator_id", currentUserID(c),
		"product_id", product.ID,
		"delta", req.Delta,
		"stock_quantity", product.StockQuantity,
	)
	response.Success(c, product)
}
