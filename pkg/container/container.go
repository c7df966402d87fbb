package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"nutrifarm-backend/internal/config"
	orderHandler "nutrifarm-backend/internal/domains/order/handler"
	orderJob "nutrifarm-backend/internal/domains/order/job"
	orderRepo "nutrifarm-backend/internal/domains/order/repository"
	orderService "nutrifarm-backend/internal/domains/order/service"
	"nutrifarm-backend/internal/domains/payment/gateway"
	gatewayMock "nutrifarm-backend/internal/domains/payment/gateway/mock"
	"nutrifarm-backend/internal/domains/payment/gateway/xendit"
	productRepo "nutrifarm-backend/internal/domains/product/repository"
	promoHandler "nutrifarm-backend/internal/domains/promotion/handler"
	promoRepo "nutrifarm-backend/internal/domains/promotion/repository"
	promoService "nutrifarm-backend/internal/domains/promotion/service"
	"nutrifarm-backend/internal/infrastructure/cache"
	"nutrifarm-backend/internal/infrastructure/database"
	"nutrifarm-backend/internal/infrastructure/queue"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/pkg/clock"
	"nutrifarm-backend/pkg/jwt"
	"nutrifarm-backend/pkg/logger"
	"nutrifarm-backend/pkg/metrics"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds the dependency graph shared by the api, worker and reconcile binaries.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *cache.RedisClient
	Queue      *asynq.Client
	JWTManager *jwt.Manager
	Metrics    *metrics.Metrics
	Clock      clock.Clock
	Gateway    gateway.InvoiceGateway

	// Repositories
	ProductRepo   productRepo.ProductRepository
	PromotionRepo promoRepo.PromotionRepository
	LedgerRepo    promoRepo.LedgerRepository
	OrderRepo     orderRepo.OrderRepository

	// Services
	PricingService   promoService.PricingService
	LedgerService    promoService.LedgerService
	OrderService     orderService.OrderService
	ReconcileService orderService.ReconcileService

	// Handlers
	PromotionHandler *promoHandler.PromotionHandler
	OrderHandler     *orderHandler.OrderHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer loads config, connects Postgres and Redis, then wires
// repositories, services and handlers in that order.
func NewContainer(ctx context.Context) (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("config loaded", map[string]interface{}{
		"environment": cfg.App.Environment,
	})

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	if err := c.initGateway(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized", nil)
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	c.DB = database.NewPostgresDB(dbConfig)
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Redis = cache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.Queue = asynq.NewClient(queue.RedisOpt(c.Config.Redis))
	c.JWTManager = jwt.NewManager(c.Config.JWT.Secret, time.Duration(c.Config.JWT.AccessTokenExpiry)*time.Minute)
	c.Metrics = metrics.Default()
	c.Clock = clock.New()
	return nil
}

// initGateway falls back to the in-memory gateway when no Xendit key is set;
// config validation already refuses that in production.
func (c *Container) initGateway() error {
	if c.Config.Xendit.SecretKey == "" {
		logger.Warn("XENDIT_SECRET_KEY not set, using mock invoice gateway", nil)
		c.Gateway = gatewayMock.NewInvoiceGateway()
		return nil
	}

	client, err := xendit.NewClient(xendit.NewConfig(
		c.Config.Xendit.SecretKey,
		c.Config.Xendit.BaseURL,
		c.Config.Xendit.Timeout,
	))
	if err != nil {
		return fmt.Errorf("failed to create xendit client: %w", err)
	}
	c.Gateway = client
	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool
	c.ProductRepo = productRepo.NewPostgresRepository(pool)
	c.PromotionRepo = promoRepo.NewPostgresRepository(pool)
	c.LedgerRepo = promoRepo.NewPostgresLedger(pool)
	c.OrderRepo = orderRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	calculator := promoService.NewDiscountCalculator(c.Clock, c.Config.Pricing.EnforceMinPurchase)

	c.PricingService = promoService.NewPricingService(c.ProductRepo, c.PromotionRepo, calculator, c.Clock, c.Metrics)
	c.LedgerService = promoService.NewLedgerService(c.LedgerRepo, c.Clock, c.Metrics)
	c.OrderService = orderService.NewOrderService(c.OrderRepo, c.PricingService, c.LedgerService)
	c.ReconcileService = orderService.NewReconcileService(
		c.OrderRepo,
		c.Gateway,
		c.Clock,
		c.Metrics,
		c.Redis.Locker(),
		c.Config.Job.ReconcileLockTTL,
	)
}

func (c *Container) initHandlers() {
	c.PromotionHandler = promoHandler.NewPromotionHandler(c.PricingService, c.LedgerService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService, c.ReconcileService, c.Queue, c.Config.Job.ReconcileTimeout)
}

// ReconcileJobHandler builds the asynq handler for the reconciliation task.
func (c *Container) ReconcileJobHandler() *orderJob.ReconcilePaymentsHandler {
	return orderJob.NewReconcilePaymentsHandler(c.ReconcileService, shared.ReconcilePaymentsPayload{
		LookbackDays: c.Config.Job.ReconcileLookbackDays,
		BatchSize:    c.Config.Job.ReconcileBatchSize,
		Trigger:      shared.TriggerSchedule,
	})
}

// ========================================
// CLEANUP
// ========================================

func (c *Container) Cleanup() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			logger.Error("failed to close asynq client", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
