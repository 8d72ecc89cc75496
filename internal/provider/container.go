package provider

import (
	"github.com/medcart/internal/authz"
	"github.com/medcart/internal/cache"
	"github.com/medcart/internal/config"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/metrics"
	"github.com/medcart/internal/models"
	"github.com/medcart/internal/queue"
	"github.com/medcart/internal/repository"
	"github.com/medcart/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// Repositories
	UserRepo          repository.UserRepository
	ProductRepo       repository.ProductRepository
	CartRepo          repository.CartRepository
	OrderRepo         repository.OrderRepository
	PaymentIntentRepo repository.PaymentIntentRepository

	// Gateways
	PaymentGateway service.PaymentGateway
	CourierGateway service.CourierGateway

	// Services
	AuthzService       *authz.Service
	UserAuthService    *service.UserAuthService
	UserAdminService   *service.UserAdminService
	CaptchaService     *service.CaptchaService
	ProductService     *service.ProductService
	CartService        *service.CartService
	OrderService       *service.OrderService
	OrderStatusService *service.OrderStatusService
	PaymentService     *service.PaymentService
	ShipmentService    *service.ShipmentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		DB:          models.DB,
		QueueClient: queueClient,
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New(cfg.Metrics.Namespace)
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化外部网关
	c.initGateways()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentIntentRepo = repository.NewPaymentIntentRepository(db)
}

func (c *Container) initGateways() {
	razorpayGateway := service.NewRazorpayGateway(c.Config.Razorpay)
	if !razorpayGateway.Enabled() {
		logger.Infow("provider_payment_gateway_disabled", "gateway", razorpayGateway.Name())
	}
	c.PaymentGateway = razorpayGateway

	dtdcGateway := service.NewDTDCGateway(c.Config.Courier)
	if !dtdcGateway.Enabled() {
		logger.Infow("provider_courier_gateway_disabled", "courier", dtdcGateway.Name())
	}
	c.CourierGateway = dtdcGateway
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	var recorder service.CheckoutRecorder
	if c.Metrics != nil {
		recorder = c.Metrics
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(service.OrderServiceOptions{
		OrderRepo:   c.OrderRepo,
		ProductRepo: c.ProductRepo,
		CartRepo:    c.CartRepo,
		QueueClient: c.QueueClient,
		Recorder:    recorder,
		NoPrefix:    c.Config.Order.NoPrefix,
		Currency:    c.Config.App.Currency,
	})
	c.OrderStatusService = service.NewOrderStatusService(service.OrderStatusServiceOptions{
		OrderRepo:         c.OrderRepo,
		ProductRepo:       c.ProductRepo,
		QueueClient:       c.QueueClient,
		Courier:           c.CourierGateway,
		StrictTransitions: c.Config.Order.StrictTransitions,
		RestockOnCancel:   c.Config.Order.RestockOnCancel,
		AutoBookShipment:  c.Config.Order.AutoBookShipment,
	})
	c.PaymentService = service.NewPaymentService(service.PaymentServiceOptions{
		IntentRepo:   c.PaymentIntentRepo,
		OrderRepo:    c.OrderRepo,
		CartService:  c.CartService,
		OrderService: c.OrderService,
		Gateway:      c.PaymentGateway,
		Currency:     c.Config.App.Currency,
	})
	c.ShipmentService = service.NewShipmentService(c.OrderRepo, c.CourierGateway)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if err := c.QueueClient.Close(); err != nil {
		return err
	}
	return cache.Close()
}
