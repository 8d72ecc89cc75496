package public

import (
	"strings"

	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetProducts 上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	query, ok := parseProductQuery(c)
	if !ok {
		return
	}
	products, total, err := h.ProductService.ListPublic(query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(query.Page, query.PageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetPublic(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// GetCategories 商品分类列表
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.ProductService.ListCategories()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

func parseProductQuery(c *gin.Context) (service.ProductQuery, bool) {
	page, pageSize := handlershared.QueryPagination(c)
	query := service.ProductQuery{
		Page:     page,
		PageSize: pageSize,
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
	}
	for field, target := range map[string]**decimal.Decimal{
		"price_min": &query.PriceMin,
		"price_max": &query.PriceMax,
	} {
		raw := strings.TrimSpace(c.Query(field))
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			handlershared.RespondErrorWithKind(c, response.CodeBadRequest, response.KindValidation, "error.validation",
				gin.H{"field": field}, nil, field, "must be a decimal number")
			return query, false
		}
		*target = &value
	}
	return query, true
}
