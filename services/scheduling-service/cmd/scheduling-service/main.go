package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fieldcrew/opsuite/libs/config"
	"github.com/fieldcrew/opsuite/libs/db"
	"github.com/fieldcrew/opsuite/libs/httpx"
	"github.com/fieldcrew/opsuite/libs/kafkax"
	otelx "github.com/fieldcrew/opsuite/libs/otel"
	"github.com/fieldcrew/opsuite/libs/runtime"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/availability"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/handlers"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/inbox"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/schedule"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/storage"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/storage/memstore"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	}

	brokers := config.String("KAFKA_BROKERS", "")
	var (
		checks     []runtime.ReadyCheck
		store      schedule.Store
		pool       *db.Pool
		outboxRepo *outbox.Repository
	)

	dbURL := config.String("DATABASE_URL", "")
	if dbURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = memstore.New()
	} else {
		pool, err = db.Open(ctx, dbURL, db.Options{
			MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		applied, err := db.Migrate(ctx, pool, storage.Migrations())
		if err != nil {
			logger.Error("db migration failed", "err", err)
			panic(err)
		}
		if len(applied) > 0 {
			logger.Info("db migrations applied", "files", applied)
		}
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		outboxRepo = outbox.NewRepository(pool)
		store = storage.NewRepository(pool, outboxRepo)
	}

	engineOpts := []availability.Option{
		availability.WithGranularity(time.Duration(config.Int("SLOT_GRANULARITY_MINUTES", 30)) * time.Minute),
	}
	if config.Bool("HIDE_PAST_SLOTS", true) {
		engineOpts = append(engineOpts, availability.WithClock(time.Now))
	}
	engine := availability.NewEngine(store, engineOpts...)
	validator := availability.NewValidator(engine, time.Duration(config.Int("SLOT_TOLERANCE_MINUTES", 0))*time.Minute)
	svc := schedule.NewService(store, engine, validator, logger)
	httpHandler := handlers.New(svc, engine, validator, logger)

	if pool != nil {
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
			Retention: config.Duration("OUTBOX_RETENTION", 7*24*time.Hour),
		})
		go publisher.Run(ctx)

		inboxRepo := inbox.NewRepository(pool)
		go purgeInbox(ctx, logger, inboxRepo, config.Duration("INBOX_RETENTION", 7*24*time.Hour))
		wait := startConsumer(ctx, logger, inboxRepo, brokers, svc)
		defer wait()
	}

	limiter, limiterCheck := newRateLimiter(logger)
	if limiterCheck != nil {
		checks = append(checks, *limiterCheck)
	}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	httpHandler.Routes(mux, httpx.RateLimit(limiter, httpx.HeaderAndClientKey("X-Business-Id"), logger, true))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS"),
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	if err := startGrpcServer(ctx, logger); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	<-ctx.Done()
	if err := runtime.Shutdown(10*time.Second, srv.Shutdown, otelShutdown); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// newRateLimiter prefers Redis so every replica shares one budget, and falls
// back to a per-process limiter when REDIS_ADDR is unset.
func newRateLimiter(logger *slog.Logger) (httpx.Limiter, *runtime.ReadyCheck) {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		logger.Info("rate limiter using process memory", "limit_per_minute", limit)
		return httpx.NewMemoryRateLimiter(limit, time.Minute), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
	})
	logger.Info("rate limiter using redis", "addr", addr, "limit_per_minute", limit)
	return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "scheduling:rl"),
		&runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)}
}
