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

	"github.com/kailas-cloud/protsearch/internal/config"
	"github.com/kailas-cloud/protsearch/internal/db"
	dbRedis "github.com/kailas-cloud/protsearch/internal/db/redis"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	logpkg "github.com/kailas-cloud/protsearch/internal/logger"
	"github.com/kailas-cloud/protsearch/internal/metrics"
	"github.com/kailas-cloud/protsearch/internal/repository/respcache"
	chiTransport "github.com/kailas-cloud/protsearch/internal/transport/chi"
	"github.com/kailas-cloud/protsearch/internal/transport/upstream"
	healthuc "github.com/kailas-cloud/protsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/protsearch/internal/usecase/search"
	"github.com/kailas-cloud/protsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "protsearch", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting protsearch web server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
		zap.String("flow", cfg.Search.Flow),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		Timeout:    time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
		HealthPath: cfg.Upstream.HealthPath,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to create search service client", zap.Error(err))
	}

	// Optional response cache in front of the search service.
	// Pass nil interfaces (not typed nil pointers) when it is disabled.
	var (
		backend   searchuc.Backend = client
		cachePing healthuc.CachePinger
	)
	if cfg.Cache.Enabled() {
		store := connectCache(cfg.Cache, logger)
		defer store.Close()

		backend = respcache.New(client, store, respcache.Config{
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
			KeyPrefix:  cfg.Cache.KeyPrefix,
			CacheTotal: metrics.ResponseCacheTotal,
			Logger:     logger,
		})
		cachePing = store
	}

	searchSvc := searchuc.New(backend, cfg.Search.MaxK, logger)
	healthSvc := healthuc.New(client, cachePing)

	server, err := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.Config{
		Defaults:        query.Params{K: cfg.Search.DefaultK},
		Flow:            cfg.Search.Flow,
		SearchDebounce:  time.Duration(cfg.Search.SearchDebounceMs) * time.Millisecond,
		SuggestDebounce: time.Duration(cfg.Search.SuggestDebounceMs) * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create HTTP server", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.WriteBindError,
	})

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

// connectCache opens the Redis/Valkey store and waits until it answers.
func connectCache(cfg config.CacheConfig, logger *zap.Logger) db.Store {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		RESP2:    cfg.Driver == "redis",
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}

	if err := store.WaitForReady(context.Background(), time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache not ready", zap.Error(err))
	}
	logger.Info("Connected to cache", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
	return store
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID
// to the response and to the search service.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)
			ctx = upstream.ContextWithRequestID(ctx, requestID)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line: one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("upstream_calls", ww.Header().Get("X-Upstream-Calls")),
			)
		})
	}
}
