package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightdeals/internal/cache"
	"github.com/dharmasatrya/flightdeals/internal/config"
	"github.com/dharmasatrya/flightdeals/internal/handler"
	"github.com/dharmasatrya/flightdeals/internal/likes"
	"github.com/dharmasatrya/flightdeals/internal/ratelimit"
	"github.com/dharmasatrya/flightdeals/internal/search"
	"github.com/dharmasatrya/flightdeals/internal/store"
	"github.com/dharmasatrya/flightdeals/internal/upstream"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.FetchTimeout,
	})

	var flightCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		flightCache = redisCache
		slog.Info("redis cache enabled", "host", cfg.RedisHost, "port", cfg.RedisPort, "ttl", cfg.RedisTTL)
	} else {
		flightCache = cache.NewNoOpCache()
		slog.Info("cache disabled")
	}
	defer flightCache.Close()

	kv, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	manager := search.NewManager(search.Config{
		Opener:     search.UpstreamOpener(client),
		Cache:      flightCache,
		Logger:     slog.Default(),
		SessionTTL: cfg.SessionTTL,
	})
	defer manager.Close()

	limiter := ratelimit.NewClientLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: cfg.SearchRateLimit,
		BurstSize:         cfg.SearchRateBurst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go manager.Run(ctx, time.Minute)
	go pruneLimiter(ctx, limiter, cfg.SessionTTL)

	handler.Register(e, handler.Routes{
		Search:      handler.NewSearchHandler(manager),
		Likes:       handler.NewLikesHandler(likes.New(kv)),
		Upstream:    client,
		SearchLimit: limiter.Middleware(),
	})

	go func() {
		slog.Info("starting flight deals server", "port", cfg.Port, "upstream", cfg.APIBaseURL)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, err
		}
		return store.NewRedisStore(client), nil
	case config.DriverSQLite:
		return store.NewSQLiteStore(cfg.SQLitePath)
	default:
		return store.NewMemoryStore(), nil
	}
}

func pruneLimiter(ctx context.Context, limiter *ratelimit.ClientLimiter, idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			limiter.Prune(now.Add(-idle))
		}
	}
}
