package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/medcart/internal/config"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/queue"
	"github.com/medcart/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db          *gorm.DB
	productRepo *repository.GormProductRepository
	cartRepo    *repository.GormCartRepository
	orderRepo   *repository.GormOrderRepository
	userRepo    *repository.GormUserRepository
	intentRepo  *repository.GormPaymentIntentRepository
	queue       *recordingQueue
	carts       *CartService
	orders      *OrderService
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	f := &serviceFixture{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		cartRepo:    repository.NewCartRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		userRepo:    repository.NewUserRepository(db),
		intentRepo:  repository.NewPaymentIntentRepository(db),
		queue:       &recordingQueue{},
	}
	f.carts = NewCartService(f.cartRepo, f.productRepo)
	f.orders = NewOrderService(OrderServiceOptions{
		OrderRepo:   f.orderRepo,
		ProductRepo: f.productRepo,
		CartRepo:    f.cartRepo,
		QueueClient: f.queue,
		NoPrefix:    "MD",
	})
	return f
}

func (f *serviceFixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Role: "customer", Status: "active"}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (f *serviceFixture) createProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:          name,
		Category:      "monitoring",
		Price:         models.MustMoney(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (f *serviceFixture) addToCart(t *testing.T, userID, productID uint, quantity int) {
	t.Helper()
	if _, err := f.carts.AddItem(userID, productID, quantity); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
}

func (f *serviceFixture) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	var product models.Product
	if err := f.db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.StockQuantity
}

func (f *serviceFixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}

func validShippingInput() CreateOrderInput {
	return CreateOrderInput{
		ShippingAddress: "221B Baker Street, Mumbai 400001",
		Phone:           "+91 98200 00000",
	}
}

type recordingQueue struct {
	mu       sync.Mutex
	disabled bool
	notifies []queue.OrderStatusNotifyPayload
	bookings []queue.OrderShipmentPayload
}

func (q *recordingQueue) Enabled() bool {
	return !q.disabled
}

func (q *recordingQueue) EnqueueOrderStatusNotify(payload queue.OrderStatusNotifyPayload, _ ...asynq.Option) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifies = append(q.notifies, payload)
	return nil
}

func (q *recordingQueue) EnqueueOrderBookShipment(payload queue.OrderShipmentPayload, _ ...asynq.Option) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bookings = append(q.bookings, payload)
	return nil
}

func (q *recordingQueue) notifyCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notifies)
}

func (q *recordingQueue) bookingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bookings)
}

type fakeCourier struct {
	enabled  bool
	awb      string
	bookErr  error
	status   string
	requests []ShipmentRequest
}

func (c *fakeCourier) Enabled() bool { return c.enabled }

func (c *fakeCourier) Name() string { return "dtdc" }

func (c *fakeCourier) BookShipment(_ context.Context, req ShipmentRequest) (Shipment, error) {
	c.requests = append(c.requests, req)
	if c.bookErr != nil {
		return Shipment{}, c.bookErr
	}
	return Shipment{AWBNumber: c.awb, Partner: "dtdc", Status: "booked"}, nil
}

func (c *fakeCourier) Track(_ context.Context, awb string) (TrackingInfo, error) {
	return TrackingInfo{AWBNumber: awb, Status: c.status}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		UserJWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1, Issuer: "medcart"},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true},
		},
	}
}
