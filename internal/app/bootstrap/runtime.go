package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopcart/ranking-service/internal/adapters/cache"
	eventadapter "github.com/loopcart/ranking-service/internal/adapters/events"
	httpadapter "github.com/loopcart/ranking-service/internal/adapters/http"
	"github.com/loopcart/ranking-service/internal/adapters/postgres"
	"github.com/loopcart/ranking-service/internal/adapters/scheduler"
	"github.com/loopcart/ranking-service/internal/application"
	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	relay      *eventadapter.OutboxRelay
	consumer   *eventadapter.ConsumerWorker
	carryOver  *scheduler.CarryOverWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	eventadapter.InitMetrics()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:        cfg.ServiceID,
			MetricsRetryMax:    cfg.MetricsRetryMax,
			BatchChunkSize:     cfg.BatchChunkSize,
			CarryOverMarkerTTL: cfg.CarryOverMarkerTTL,
		},
		Logger:      logger,
		UnitOfWork:  repos.UnitOfWork,
		Ledger:      repos.Ledger,
		Metrics:     repos.Metrics,
		RankWeekly:  repos.RankWeekly,
		RankMonthly: repos.RankMonthly,
		Ranking:     cache.NewRedisRankingStore(redisClient),
		Marker:      cache.NewRedisCarryOverMarker(redisClient),
		Cache:       cache.NewRedisProductCache(redisClient),
	})

	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(logger, handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	var closers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, consumedTopics())
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}

	relay := eventadapter.NewOutboxRelay(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize, cfg.OutboxMaxRetries)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval, cfg.ConsumerBatchSize)
	carryOver := scheduler.NewCarryOverWorker(logger, service, cfg.CarryOverInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		httpServer: httpServer,
		relay:      relay,
		consumer:   consumer,
		carryOver:  carryOver,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func consumedTopics() []string {
	types := []domain.EventType{
		domain.EventProductLiked,
		domain.EventProductUnliked,
		domain.EventProductViewed,
		domain.EventProductStockDepleted,
		domain.EventOrderCreated,
		domain.EventOrderPaid,
	}
	topics := make([]string, 0, len(types))
	for _, t := range types {
		topics = append(topics, t.Topic())
	}
	return topics
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	go func() {
		if err := r.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.carryOver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		r.cleanupFn(context.Background())
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}

// RunBatch executes one materialized ranking run and exits.
func (r *Runtime) RunBatch(ctx context.Context, targetDate time.Time, rankingType domain.RankingType) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.cleanupFn(context.Background())

	_, err := r.service.RunRankingJob(ctx, targetDate, rankingType)
	return err
}
