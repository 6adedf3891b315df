package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kirinyoku/showseat/internal/config"
	"github.com/kirinyoku/showseat/internal/notify"
	"github.com/kirinyoku/showseat/internal/postgres"
	"github.com/kirinyoku/showseat/internal/pricing"
	redisx "github.com/kirinyoku/showseat/internal/redis"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/kirinyoku/showseat/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/showseat/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/showseat/internal/repository/redis"
	"github.com/kirinyoku/showseat/internal/service"
	"github.com/kirinyoku/showseat/internal/service/booking"
	httpgin "github.com/kirinyoku/showseat/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	closers    []func()
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{cfg: cfg, logger: logger}

	// Initialize dependencies
	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	policy, err := pricing.New(pricing.Config{
		Standard:       cfg.Pricing.Standard,
		Premium:        cfg.Pricing.Premium,
		PremiumFromRow: cfg.Pricing.PremiumFromRow,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to build price policy: %w", err)
	}

	var (
		hooks booking.Hooks
		cache *redisrepo.Cache
		idem  httpgin.IdempotencyStore
	)

	if cfg.Redis.Addr != "" {
		rdb, err := redisx.New(ctx, redisx.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		cache = redisrepo.NewCache(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
		hooks.PubSub = redisx.NewShowingsPubSub(rdb)
		if cfg.Booking.RateLimit > 0 {
			hooks.Limiter = redisrepo.NewSlidingWindowLimiter(rdb, "bookings", cfg.Booking.RateLimit, cfg.Booking.RateWindow)
		}
	} else {
		logger.Info("redis disabled: no cache, rate limit or idempotency keys")
	}

	if cfg.RabbitMQ.URL != "" {
		pub, err := notify.Dial(cfg.RabbitMQ.URL, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		hooks.Events = pub
	}

	// Initialize services
	services := service.NewServices(store, policy, cache, hooks, service.Config{}, logger)

	if cfg.Store.SeedSample {
		n, err := services.Catalog.SeedSample(ctx, time.Now())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to seed sample schedule: %w", err)
		}
		if n == 0 {
			logger.Info("sample schedule already present")
		}
	}

	// Initialize Gin router
	router := httpgin.NewRouter(services, idem, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore()
	default:
		pg := a.cfg.Postgres
		dsn := postgres.Config{
			Host:     pg.Host,
			Port:     strconv.Itoa(pg.Port),
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Name,
			SSLMode:  pg.SSLMode,
		}.DSN()

		if err := postgres.Migrate(dsn); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}

		pgxPool, err := postgres.New(ctx, dsn, pg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, pgxPool.Close)

		return postgresrepo.NewStore(pgxPool), nil
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
