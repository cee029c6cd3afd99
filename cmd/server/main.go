package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/blob"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/postgres"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/logging"
)

const (
	shutdownTimeout   = 15 * time.Second
	evictionInterval  = time.Minute
	visitorIdleExpiry = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	blobs, closeBlobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlobs()

	m := metrics.New()
	opts := []ledger.Option{ledger.WithMetrics(m)}
	if blobs != nil {
		opts = append(opts, ledger.WithBlobStore(blobs))
	}
	l := ledger.New(store, opts...)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store, cfg.BcryptCost)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go limiter.RunEviction(ctx, evictionInterval, visitorIdleExpiry)

	// First interceptor is outermost: metrics see rejected calls, logging sees the caller.
	authRequired := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(tokens),
		limiter.Interceptor(),
		middleware.LoggingInterceptor(),
	)
	authOptional := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.OptionalAuth(tokens),
		limiter.Interceptor(),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewLedgerServiceHandler(service.NewLedgerService(l), authRequired))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(store), authRequired))
	mux.Handle(api.NewDashboardServiceHandler(service.NewDashboardService(l), authRequired))
	mux.Handle(api.NewAuthServiceHandler(service.NewAuthService(authenticator, tokens, store), authOptional))
	if blobs != nil {
		mux.Handle(api.NewReceiptServiceHandler(service.NewReceiptService(blobs, cfg.MaxReceiptBytes, m), authRequired))
	}
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, db config.Database) (storage.Store, error) {
	switch db.Driver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, db.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.New(db.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		return store, nil
	}
}

// openBlobs returns a nil store when receipts are disabled.
func openBlobs(ctx context.Context, cfg *config.Config) (blob.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.BlobBackend {
	case config.BlobRedis:
		store, err := blob.NewRedisStore(ctx, cfg.RedisURL, cfg.BlobTTL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize redis blob store: %w", err)
		}
		slog.Info("Receipt storage initialized", "backend", "redis")
		return store, store.Close, nil
	case config.BlobFS:
		store, err := blob.NewFileStore(cfg.BlobDir)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("Receipt storage initialized", "backend", "fs", "path", cfg.BlobDir)
		return store, noop, nil
	default:
		slog.Info("Receipt storage disabled")
		return nil, noop, nil
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
