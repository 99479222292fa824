package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/compiler"
	"github.com/kailas-cloud/finquery/internal/config"
	dbRedis "github.com/kailas-cloud/finquery/internal/db/redis"
	"github.com/kailas-cloud/finquery/internal/domain/schema"
	"github.com/kailas-cloud/finquery/internal/interpret"
	logpkg "github.com/kailas-cloud/finquery/internal/logger"
	"github.com/kailas-cloud/finquery/internal/metrics"
	"github.com/kailas-cloud/finquery/internal/prompt"
	"github.com/kailas-cloud/finquery/internal/repository/qcache"
	chiTransport "github.com/kailas-cloud/finquery/internal/transport/chi"
	"github.com/kailas-cloud/finquery/internal/transport/elastic"
	"github.com/kailas-cloud/finquery/internal/transport/llm/langchain"
	llmOpenAI "github.com/kailas-cloud/finquery/internal/transport/llm/openai"
	healthuc "github.com/kailas-cloud/finquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/finquery/internal/usecase/search"
	"github.com/kailas-cloud/finquery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting finquery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Strings("elastic_addrs", cfg.Elastic.Addresses),
	)

	// Register compiler metrics explicitly (no init())
	metrics.RegisterCompilerMetrics()

	ctx := context.Background()

	// Elasticsearch index client
	index, err := elastic.New(elastic.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
		Index:     cfg.Elastic.Index,
	})
	if err != nil {
		logger.Fatal("Failed to create elasticsearch client", zap.Error(err))
	}
	if err := index.Ping(ctx); err != nil {
		// The compiler keeps working without the index; /healthz reports it.
		logger.Warn("Elasticsearch not reachable at startup", zap.Error(err))
	} else {
		logger.Info("Connected to elasticsearch", zap.String("index", cfg.Elastic.Index))
	}

	// Model provider — composition root
	provider, err := buildProvider(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create model provider", zap.Error(err))
	}

	// Compiler chain
	registry := schema.Stocks()
	comp := compiler.New(
		prompt.NewBuilder(registry),
		provider,
		interpret.New(registry),
		logger,
	)

	// Optional transform cache decorating the compiler
	var transformer searchuc.Transformer = comp
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		transformer = qcache.New(
			comp, store, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.TransformCacheTotal, logger,
		)
		logger.Info("Transform cache enabled", zap.Int("ttl_sec", cfg.Cache.TTLSec))
	}

	// Use case services
	searchSvc := searchuc.New(transformer, index)
	healthSvc := healthuc.New(index, newProviderHealthChecker(provider))

	// Create chi server
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/v1/search", server.Search)
	r.Get("/healthz", server.HealthCheck)
	r.Get("/metrics", server.Metrics)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildProvider selects the model provider implementation.
func buildProvider(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (compiler.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return llmOpenAI.New(&llmOpenAI.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		}), nil
	case "langchain":
		cl, err := langchain.New(ctx, &langchain.Config{
			Backend: cfg.Backend,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("langchain provider: %w", err)
		}
		return cl, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// providerHealthChecker adapts a provider to health.ProviderChecker.
// Providers without a health endpoint always report healthy.
type providerHealthChecker struct {
	provider compiler.Provider
}

func newProviderHealthChecker(provider compiler.Provider) *providerHealthChecker {
	return &providerHealthChecker{provider: provider}
}

func (h *providerHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.provider.(interface{ HealthCheck(context.Context) error }); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("model provider health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
