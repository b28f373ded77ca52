package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/ledger/internal/command"
	"github.com/eaglebank/ledger/internal/config"
	"github.com/eaglebank/ledger/internal/handler"
	"github.com/eaglebank/ledger/internal/query"
	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/internal/token"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/logging"
	"github.com/eaglebank/ledger/shared/metrics"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New("ledger", cfg.Debug)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis (balance view cache + event streaming) is optional.
	var cache repository.BalanceCache
	var publisher command.EventPublisher = events.NopPublisher{}
	if cfg.RedisAddr != "" {
		redis, err := redisClient.NewClient(ctx, redisClient.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			PoolSize:  cfg.RedisPoolSize,
			IOTimeout: cfg.RedisTimeout,
		})
		if err != nil {
			return err
		}
		defer redis.Close()
		cache = redisClient.NewViewCache[models.BalanceView](redis.Client, "balance:view:", cfg.BalanceCacheTTL, log)
		publisher = events.NewPublisher(redis.Client)
		log.WithField("addr", redis.Addr()).Info("Redis cache and event stream enabled")
	}

	// --- CQRS wiring ---
	tokens := token.NewService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	m := metrics.New()
	readRepo := repository.NewBalanceReadRepository(store, cache)

	commandSvc := command.NewAccountCommandService(store, readRepo, tokens, publisher, m, log)
	authQuerySvc := query.NewAuthQueryService(store, tokens, m)
	accountQuerySvc := query.NewAccountQueryService(readRepo)

	router, err := handler.NewRouter(handler.RouterDeps{
		Auth:    handler.NewAuthHandler(commandSvc, authQuerySvc),
		Account: handler.NewAccountHandler(commandSvc, accountQuerySvc),
		ValidateAccess: func(tokenString string) (string, error) {
			return tokens.Validate(tokenString, token.Access)
		},
		RateLimiter:    middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, log),
		Metrics:        m,
		Log:            log,
		TrustedProxies: cfg.TrustedProxyList(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Ledger API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured UserStore and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Entry) (repository.UserStore, func(), error) {
	if cfg.UseMemoryStore() {
		log.Warn("Using in-memory store; data is lost on restart")
		return repository.NewMemoryUserStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pingTimeout := cfg.StoreTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewPostgresUserStore(db, cfg.StoreTimeout), func() { db.Close() }, nil
}
