package mainconfig

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tomplumbs/landing-page/internal/api/router"
	appconfig "github.com/tomplumbs/landing-page/internal/config"
	httpmiddleware "github.com/tomplumbs/landing-page/internal/http/middleware"
	"github.com/tomplumbs/landing-page/internal/leads"
	"github.com/tomplumbs/landing-page/internal/notify"
	"github.com/tomplumbs/landing-page/internal/observability/metrics"
	"github.com/tomplumbs/landing-page/pkg/logging"
	"github.com/tomplumbs/landing-page/web"
)

// App is the fully wired HTTP surface shared by the server and the Lambda.
type App struct {
	Handler http.Handler
	closers []func() error
}

// Close releases the rate limiter and Redis connection.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewRegistry returns a Prometheus registry with the Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// BuildApp wires config, email, metrics, rate limiting and static assets into
// one handler.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if reg == nil {
		reg = NewRegistry()
	}
	app := &App{}

	leadMetrics := metrics.NewLeadMetrics(reg)
	sender, err := NewEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	dispatcher, err := notify.NewDispatcher(cfg, sender, leadMetrics, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("email dispatch configured", "provider", cfg.EmailProvider, "enabled", dispatcher.Enabled())

	assets, err := web.Assets(cfg.StaticDir)
	if err != nil {
		return nil, err
	}
	static, err := web.Handler(assets)
	if err != nil {
		return nil, err
	}

	var limiter httpmiddleware.Limiter
	if cfg.SubmitRatePerMinute > 0 {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			app.closers = append(app.closers, client.Close)
			limiter = httpmiddleware.NewRedisLimiter(client, int(cfg.SubmitRatePerMinute)+cfg.SubmitRateBurst, time.Minute)
			logger.Info("submission rate limit backed by redis", "addr", cfg.RedisAddr)
		} else {
			memory := httpmiddleware.NewRateLimiter(cfg.SubmitRatePerMinute, cfg.SubmitRateBurst)
			app.closers = append(app.closers, func() error { memory.Close(); return nil })
			limiter = memory
		}
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(cfg, dispatcher, leadMetrics, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		StaticHandler:      static,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitLimiter:      limiter,
		RateLimit: httpmiddleware.RateLimitOptions{
			BusinessPhone: cfg.BusinessPhone,
			Metrics:       leadMetrics,
			Logger:        logger,
		},
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		VerboseLogging:    !cfg.IsProduction() && cfg.EffectiveLogLevel() == "debug",
		StartedAt:         time.Now(),
	})
	return app, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if strings.HasPrefix(cfg.RedisAddr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			logger.Warn("invalid redis url", "error", err)
			return nil
		}
		opts = parsed
		if opts.TLSConfig == nil {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available; using in-memory rate limit", "error", fmt.Errorf("ping %s: %w", cfg.RedisAddr, err))
		_ = client.Close()
		return nil
	}
	return client
}
