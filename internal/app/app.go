package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/seansyed/parafort-sub010/internal/auth"
	"github.com/seansyed/parafort-sub010/internal/config"
	"github.com/seansyed/parafort-sub010/internal/event"
	handler "github.com/seansyed/parafort-sub010/internal/handler/http"
	"github.com/seansyed/parafort-sub010/internal/provider"
	"github.com/seansyed/parafort-sub010/internal/repository/postgres"
	redisrepo "github.com/seansyed/parafort-sub010/internal/repository/redis"
	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/migrations"
	"github.com/seansyed/parafort-sub010/pkg/database"
	"github.com/seansyed/parafort-sub010/pkg/health"
	pkgkafka "github.com/seansyed/parafort-sub010/pkg/kafka"
	"github.com/seansyed/parafort-sub010/pkg/middleware"
	"github.com/seansyed/parafort-sub010/pkg/tracing"
)

// idempotencyTTL bounds how long consumed event IDs are remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the ParaFort API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	rateLimiter    *middleware.RateLimiter
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, cfg.ServiceName)
	database.SetSlowQueryLogging(cfg.SlowQuery, logger)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis holds checkout sessions, verification codes and the catalog cache.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Initialize Kafka producer.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	mailer, err := newSender(cfg, logger)
	if err != nil {
		_ = kafkaProducer.Close()
		_ = rdb.Close()
		pool.Close()
		return nil, err
	}

	// Build the dependency graph.
	serviceRepo := postgres.NewServiceRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	entityRepo := postgres.NewEntityRepository(pool)
	announcementRepo := postgres.NewAnnouncementRepository(pool)

	sessions := redisrepo.NewCheckoutSessionStore(rdb)
	payments := provider.NewLazy(newPaymentProvider(cfg, logger))
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)

	catalogSvc := service.NewCatalogService(serviceRepo, redisrepo.NewServiceCache(rdb, cfg.CatalogCacheTTL), logger)
	authSvc := service.NewAuthService(userRepo, redisrepo.NewVerificationStore(rdb), mailer, tokens, cfg.AccessTokenTTL,
		service.AuthConfig{
			BcryptCost:      cfg.BcryptCost,
			CodeTTL:         cfg.CodeTTL,
			CodeMaxAttempts: cfg.CodeMaxAttempts,
			ResendCooldown:  cfg.ResendCooldown,
			VerifiedTTL:     cfg.VerifiedTTL,
		}, logger)
	orderSvc := service.NewOrderService(orderRepo, entityRepo, sessions, payments, event.NewProducer(kafkaProducer, logger), logger)
	checkoutSvc := service.NewCheckoutService(sessions, catalogSvc, authSvc, authSvc, payments, service.CheckoutConfig{
		SessionTTL:         cfg.CheckoutSessionTTL,
		DefaultExpediteFee: cfg.ExpediteFeeCents,
		Currency:           cfg.Currency,
	}, logger)

	var webhooks provider.WebhookParser
	if cfg.StripeWebhookSecret != "" {
		webhooks = newWebhookVerifier(cfg)
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, payment webhooks are disabled")
	}
	paymentSvc := service.NewPaymentService(payments, catalogSvc, orderSvc, webhooks, service.PaymentConfig{
		PublishableKey:     cfg.StripePublishableKey,
		Currency:           cfg.Currency,
		DefaultExpediteFee: cfg.ExpediteFeeCents,
	}, logger)

	// Kafka event consumers.
	var (
		consumers []*pkgkafka.Consumer
		dlq       *pkgkafka.DLQProducer
	)
	if cfg.ConsumersEnabled {
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		consumers = event.NewConsumers(
			event.ConsumerSettings{Brokers: cfg.KafkaBrokers, GroupID: cfg.KafkaConsumerGroup},
			event.NewNotificationHandler(mailer, logger),
			redisrepo.NewIdempotencyStore(rdb, cfg.KafkaConsumerGroup, idempotencyTTL),
			dlq,
			logger,
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", kafkaProducer.Ping)
	healthHandler.RegisterNonCritical("payments", func(context.Context) error {
		_, err := payments.Get()
		return err
	})

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute:  cfg.AuthRatePerMin,
		Burst:      cfg.AuthRatePerMin / 4,
		IdleTTL:    10 * time.Minute,
		TrustProxy: cfg.TrustProxy,
	}, logger)

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Catalog:       catalogSvc,
		Auth:          authSvc,
		Checkout:      checkoutSvc,
		Payment:       paymentSvc,
		Order:         orderSvc,
		Announcement:  service.NewAnnouncementService(announcementRepo, logger),
		Entity:        service.NewEntityService(entityRepo, orderSvc),
		CookieStore:   handler.NewCookieStore([]byte(cfg.CookieSecret), cfg.CookieSecure),
		Tokens:        tokens.Validator(),
		AuthRateLimit: rateLimiter,
	}, healthHandler, logger, handler.RouterConfig{
		ServiceName:    cfg.ServiceName,
		RequestTimeout: cfg.RequestTimeout,
		CORS:           middleware.DefaultCORSConfig(cfg.CORSOrigins),
		PprofCIDRs:     cfg.PprofCIDRs,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          rdb,
		producer:       kafkaProducer,
		dlq:            dlq,
		consumers:      consumers,
		rateLimiter:    rateLimiter,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, then blocks until the
// context is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, consumer := range a.consumers {
		c := consumer
		g.Go(func() error {
			if err := c.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	timeout := a.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.rateLimiter.Close()

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
