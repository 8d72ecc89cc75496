package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medcart/internal/authz"
	"github.com/medcart/internal/config"
	"github.com/medcart/internal/constants"
	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/provider"
	"github.com/medcart/internal/repository"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func setupPublicHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := handlershared.RegisterValidators(); err != nil {
		t.Fatalf("register validators failed: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	cfg := &config.Config{
		UserJWT: config.JWTConfig{SecretKey: "handler-secret", ExpireHours: 1},
	}
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(service.OrderServiceOptions{
		OrderRepo:   orderRepo,
		ProductRepo: productRepo,
		CartRepo:    cartRepo,
		NoPrefix:    "MD",
	})
	container := &provider.Container{
		Config:          cfg,
		DB:              db,
		UserRepo:        userRepo,
		ProductRepo:     productRepo,
		CartRepo:        cartRepo,
		OrderRepo:       orderRepo,
		AuthzService:    authzService,
		UserAuthService: service.NewUserAuthService(cfg, userRepo),
		CaptchaService:  service.NewCaptchaService(config.CaptchaConfig{}),
		ProductService:  service.NewProductService(productRepo),
		CartService:     cartService,
		OrderService:    orderService,
		OrderStatusService: service.NewOrderStatusService(service.OrderStatusServiceOptions{
			OrderRepo:   orderRepo,
			ProductRepo: productRepo,
		}),
		PaymentService: service.NewPaymentService(service.PaymentServiceOptions{
			IntentRepo:   repository.NewPaymentIntentRepository(db),
			OrderRepo:    orderRepo,
			CartService:  cartService,
			OrderService: orderService,
		}),
	}
	return New(container), db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hash", Role: role, Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:          name,
		Category:      "mobility",
		Price:         models.MustMoney(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

// asUser 模拟鉴权中间件写入的上下文
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(handlershared.ContextUserIDKey, user.ID)
		c.Set(handlershared.ContextUserRoleKey, user.Role)
		c.Next()
	}
}

func performJSON(t *testing.T, r http.Handler, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected http status: %d body=%s", w.Code, w.Body.String())
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func newUserRouter(h *Handler, user *models.User) *gin.Engine {
	r := gin.New()
	g := r.Group("", asUser(user))
	g.GET("/cart", h.GetCart)
	g.POST("/cart", h.AddCartItem)
	g.PUT("/cart/:item_id", h.UpdateCartItem)
	g.DELETE("/cart/:item_id", h.RemoveCartItem)
	g.POST("/orders", h.CreateOrder)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:id", h.GetOrder)
	g.POST("/payments/intent", h.CreatePaymentIntent)
	r.GET("/products", h.GetProducts)
	r.GET("/products/:id", h.GetProduct)
	return r
}

var validOrderBody = map[string]interface{}{
	"shipping_address": "12 MG Road, Bengaluru 560001",
	"phone":            "+91 98765 43210",
}

func TestCartToOrderFlow(t *testing.T) {
	h, db := setupPublicHandlerTest(t)
	user := seedUser(t, db, "buyer@example.com", constants.UserRoleCustomer)
	product := seedProduct(t, db, "Pulse Oximeter", "1200.00", 5)
	r := newUserRouter(h, user)

	added := performJSON(t, r, http.MethodPost, "/cart", map[string]interface{}{"product_id": product.ID, "quantity": 2})
	if added.StatusCode != 0 {
		t.Fatalf("add to cart failed: %+v", added)
	}

	view := performJSON(t, r, http.MethodGet, "/cart", nil)
	if view.StatusCode != 0 || view.Data["subtotal"] != "2400.00" {
		t.Fatalf("unexpected cart view: %+v", view)
	}

	created := performJSON(t, r, http.MethodPost, "/orders", validOrderBody)
	if created.StatusCode != 0 {
		t.Fatalf("create order failed: %+v", created)
	}
	if created.Data["total_amount"] != "2400.00" {
		t.Fatalf("unexpected total: %v", created.Data["total_amount"])
	}
	if orderNo, _ := created.Data["order_no"].(string); !strings.HasPrefix(orderNo, "MD") {
		t.Fatalf("unexpected order no: %v", created.Data["order_no"])
	}

	var stock models.Product
	if err := db.First(&stock, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if stock.StockQuantity != 3 {
		t.Fatalf("expected stock 3, got %d", stock.StockQuantity)
	}

	empty := performJSON(t, r, http.MethodGet, "/cart", nil)
	if count, _ := empty.Data["item_count"].(float64); count != 0 {
		t.Fatalf("cart should be cleared, got %+v", empty.Data)
	}
}

func TestCreateOrderErrorKinds(t *testing.T) {
	h, db := setupPublicHandlerTest(t)
	user := seedUser(t, db, "kinds@example.com", constants.UserRoleCustomer)
	product := seedProduct(t, db, "Hospital Bed", "45000.00", 1)
	r := newUserRouter(h, user)

	emptyResp := performJSON(t, r, http.MethodPost, "/orders", validOrderBody)
	if emptyResp.StatusCode != 400 || emptyResp.Data["error_kind"] != "empty_cart" {
		t.Fatalf("expected empty_cart, got %+v", emptyResp)
	}

	invalid := performJSON(t, r, http.MethodPost, "/orders", map[string]interface{}{"shipping_address": "Somewhere"})
	if invalid.StatusCode != 400 || invalid.Data["error_kind"] != "validation_error" || invalid.Data["field"] != "phone" {
		t.Fatalf("expected phone validation error, got %+v", invalid)
	}

	performJSON(t, r, http.MethodPost, "/cart", map[string]interface{}{"product_id": product.ID, "quantity": 3})
	short := performJSON(t, r, http.MethodPost, "/orders", validOrderBody)
	if short.StatusCode != 409 || short.Data["error_kind"] != "insufficient_stock" {
		t.Fatalf("expected insufficient_stock, got %+v", short)
	}
	if short.Data["requested"] != float64(3) || short.Data["available"] != float64(1) {
		t.Fatalf("unexpected stock details: %+v", short.Data)
	}
	if short.Data["product_name"] != "Hospital Bed" {
		t.Fatalf("unexpected product name: %v", short.Data["product_name"])
	}
}

func TestGetOrderVisibility(t *testing.T) {
	h, db := setupPublicHandlerTest(t)
	owner := seedUser(t, db, "owner@example.com", constants.UserRoleCustomer)
	other := seedUser(t, db, "other@example.com", constants.UserRoleCustomer)
	support := seedUser(t, db, "support@example.com", constants.UserRoleSupport)
	product := seedProduct(t, db, "Nebulizer", "2999.00", 4)

	ownerRouter := newUserRouter(h, owner)
	performJSON(t, ownerRouter, http.MethodPost, "/cart", map[string]interface{}{"product_id": product.ID, "quantity": 1})
	created := performJSON(t, ownerRouter, http.MethodPost, "/orders", validOrderBody)
	orderPath := fmt.Sprintf("/orders/%v", created.Data["order_id"])

	if resp := performJSON(t, ownerRouter, http.MethodGet, orderPath, nil); resp.StatusCode != 0 {
		t.Fatalf("owner should see order: %+v", resp)
	}
	if resp := performJSON(t, newUserRouter(h, other), http.MethodGet, orderPath, nil); resp.StatusCode != 404 || resp.Data["error_kind"] != "not_found" {
		t.Fatalf("other customer should get not_found: %+v", resp)
	}
	if resp := performJSON(t, newUserRouter(h, support), http.MethodGet, orderPath, nil); resp.StatusCode != 0 {
		t.Fatalf("support should see any order: %+v", resp)
	}
}

func TestProductQueryValidation(t *testing.T) {
	h, db := setupPublicHandlerTest(t)
	user := seedUser(t, db, "browse@example.com", constants.UserRoleCustomer)
	seedProduct(t, db, "Glucometer", "899.00", 10)
	r := newUserRouter(h, user)

	resp := performJSON(t, r, http.MethodGet, "/products?price_min=abc", nil)
	if resp.StatusCode != 400 || resp.Data["field"] != "price_min" {
		t.Fatalf("expected price_min validation error, got %+v", resp)
	}

	missing := performJSON(t, r, http.MethodGet, "/products/999", nil)
	if missing.StatusCode != 404 || missing.Data["error_kind"] != "not_found" {
		t.Fatalf("expected not_found, got %+v", missing)
	}

	badID := performJSON(t, r, http.MethodGet, "/products/abc", nil)
	if badID.StatusCode != 400 || badID.Data["field"] != "id" {
		t.Fatalf("expected id validation error, got %+v", badID)
	}
}

func TestPaymentIntentWithoutGateway(t *testing.T) {
	h, db := setupPublicHandlerTest(t)
	user := seedUser(t, db, "pay@example.com", constants.UserRoleCustomer)
	r := newUserRouter(h, user)

	resp := performJSON(t, r, http.MethodPost, "/payments/intent", nil)
	if resp.StatusCode != 400 || resp.Data["error_kind"] != "validation_error" {
		t.Fatalf("expected gateway disabled error, got %+v", resp)
	}
}
