package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"localmart/internal/cache"
	"localmart/internal/config"
	"localmart/internal/database"
	"localmart/internal/events"
	"localmart/internal/jobs"
	"localmart/internal/logx"
	"localmart/internal/notify"
	"localmart/internal/otel"
	mongorepo "localmart/internal/repository/mongo"
	"localmart/internal/service"
	"localmart/internal/worker"
)

func main() {
	cfg := config.Load()
	loc := cfg.Location()
	log := logx.New(os.Stdout, loc)
	logx.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "localmart-worker", log)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	mongoClient, mdb, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		fatal(log, "mongo_connect_failed", err)
	}
	defer mongoClient.Disconnect(context.Background())
	repos := mongorepo.NewRepos(mdb)

	store := newCache(ctx, cfg.Redis, log)

	var publisher events.Publisher = events.LogPublisher{Log: log}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, 64, log)
		defer producer.Close()
		publisher = producer
	}

	deps := service.Deps{Repos: repos, Cache: store, Events: publisher, Log: log}

	// Without a queue, notifications are stored here and show up on the next poll.
	deps.Notifier = notify.Direct{Sink: service.NewNotificationService(deps)}
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
	}

	scheduler := jobs.New(loc, log)
	if err := scheduler.Register(jobs.Services{
		Orders:   service.NewOrderService(deps),
		Proxy:    service.NewProxyService(deps),
		Bargains: service.NewBargainService(deps),
		Fees:     service.NewMarketFeeService(deps),
	}); err != nil {
		fatal(log, "jobs_register_failed", err)
	}
	scheduler.Start()
	log.Info("worker", "scheduler_started", map[string]any{"jobs": scheduler.Names()})

	done := make(chan struct{})
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrderTopic, cfg.Kafka.WorkerCount, log)
		handler := worker.LoyaltyHandler(service.NewLoyaltyService(deps), store, log)
		go func() {
			defer close(done)
			if err := consumer.Start(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("worker", "consumer_stopped", err, nil)
				stop()
			}
		}()
	} else {
		log.Info("worker", "consumer_disabled", map[string]any{"reason": "KAFKA_BROKERS not set"})
		close(done)
	}

	<-ctx.Done()
	log.Info("worker", "shutdown_started", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("worker", "consumer_stop_timeout", shutdownCtx.Err(), nil)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("otel", "tracing_shutdown_failed", err, nil)
	}
	log.Info("worker", "shutdown_complete", nil)
}

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
