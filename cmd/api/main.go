package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"localmart/docs"
	"localmart/internal/auth"
	"localmart/internal/cache"
	"localmart/internal/chat"
	"localmart/internal/config"
	"localmart/internal/database"
	"localmart/internal/database/migration"
	"localmart/internal/events"
	handlers "localmart/internal/http/handler"
	"localmart/internal/http/middleware"
	"localmart/internal/logx"
	"localmart/internal/notify"
	"localmart/internal/otel"
	"localmart/internal/payment"
	"localmart/internal/repository"
	mongorepo "localmart/internal/repository/mongo"
	"localmart/internal/repository/postgres"
	"localmart/internal/service"
	"localmart/internal/storage"
)

// @title LocalMart API
// @version 1.0
// @description Multi-market online grocery backend.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	log := logx.New(os.Stdout, loc)
	logx.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "localmart-api", log)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	// Document store
	mongoClient, mdb, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		fatal(log, "mongo_connect_failed", err)
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongorepo.EnsureIndexes(ctx, mdb); err != nil {
		fatal(log, "mongo_indexes_failed", err)
	}
	repos := mongorepo.NewRepos(mdb)

	// Payment ledger on PostgreSQL, optional
	var ledger repository.PaymentLedger
	if cfg.Database.Host != "" {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			fatal(log, "postgres_connect_failed", err)
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			fatal(log, "postgres_migration_failed", err)
		}
		ledger = postgres.NewPaymentPostgres(db)
	} else {
		log.Info("app", "ledger_disabled", map[string]any{"reason": "DB_HOST not set"})
	}

	// Object storage for product images, logos and license documents
	objStore := storage.Disabled()
	if cfg.MinIO.Endpoint != "" {
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			fatal(log, "storage_init_failed", err)
		}
	}

	store := newCache(ctx, cfg.Redis, log)

	var publisher events.Publisher = events.LogPublisher{Log: log}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, 256, log)
		defer producer.Close()
		publisher = producer
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gauge, err := chat.NewConnectionsGauge(reg)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}
	hub := chat.NewHub(gauge)

	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		fatal(log, "jwt_init_failed", err)
	}

	var gateway payment.Gateway
	if cfg.VNPay.TmnCode != "" && cfg.VNPay.HashSecret != "" {
		gateway = payment.NewVNPay(cfg.VNPay, loc)
	}

	deps := service.Deps{
		Repos:   repos,
		Ledger:  ledger,
		Storage: objStore,
		Cache:   store,
		Events:  publisher,
		Pusher:  hub,
		Gateway: gateway,
		Tokens:  tokens,
		Log:     log,
	}
	notifications := service.NewNotificationService(deps)

	// Notifications go through RabbitMQ when configured; the consumer stores and pushes them.
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	deps.Notifier = notify.Direct{Sink: notifications}
	if cfg.RabbitMQ.URL != "" {
		conn, err := notify.Dial(cfg.RabbitMQ.URL, 5, log)
		if err != nil {
			fatal(log, "rabbitmq_connect_failed", err)
		}
		defer conn.Close()
		pub, err := notify.NewPublisher(conn, cfg.RabbitMQ.Queue)
		if err != nil {
			fatal(log, "rabbitmq_publisher_failed", err)
		}
		defer pub.Close()
		deps.Notifier = pub

		consumer := notify.NewConsumer(conn, cfg.RabbitMQ.Queue, notifications, log)
		go func() {
			if err := consumer.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notify", "consumer_stopped", err, nil)
			}
		}()
	}

	services := handlers.Services{
		Auth:          service.NewAuthService(deps),
		Users:         service.NewUserService(deps),
		Loyalty:       service.NewLoyaltyService(deps),
		Markets:       service.NewMarketService(deps),
		Categories:    service.NewCategoryService(deps),
		Registrations: service.NewRegistrationService(deps),
		Licenses:      service.NewLicenseService(deps),
		Stores:        service.NewStoreService(deps),
		Products:      service.NewProductService(deps),
		Cart:          service.NewCartService(deps),
		Orders:        service.NewOrderService(deps),
		Payments:      service.NewPaymentService(deps),
		Reviews:       service.NewReviewService(deps),
		Reports:       service.NewReportService(deps),
		FAQs:          service.NewFAQService(deps),
		Support:       service.NewSupportService(deps),
		Notifications: notifications,
		Chat:          service.NewChatService(deps),
		Proxy:         service.NewProxyService(deps),
		Bargains:      service.NewBargainService(deps),
		Fees:          service.NewMarketFeeService(deps),
		Dashboard:     service.NewDashboardService(deps),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	// Register global middleware
	app.Use(recover.New())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(prom.Handler())
	app.Use(otelfiber.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	}))

	handlers.RegisterRoutes(app, handlers.Infra{
		Ping: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
		Tokens:   tokens,
		Accounts: services.Users,
		Hub:      hub,
		Metrics:  reg,
		Log:      log,
	}, services)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("app", "server_started", map[string]any{"addr": addr})
		if err := app.Listen(addr); err != nil {
			log.Error("app", "server_failed", err, nil)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("app", "shutdown_started", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("app", "server_shutdown_failed", err, nil)
	}
	cancelBackground()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("otel", "tracing_shutdown_failed", err, nil)
	}
	log.Info("app", "shutdown_complete", nil)
}

// newCache uses Redis when it answers and falls back to the in-process store.
func newCache(ctx context.Context, c config.RedisConfig, log *logx.Logger) cache.Store {
	if c.Addr == "" {
		return cache.NewMemory()
	}
	client := cache.NewRedisClient(c.Addr, c.Password, c.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("cache", "redis_unavailable", err, map[string]any{"addr": c.Addr})
		_ = client.Close()
		return cache.NewMemory()
	}
	return cache.NewRedis(client)
}

func fatal(log *logx.Logger, event string, err error) {
	log.Error("app", event, err, nil)
	os.Exit(1)
}
