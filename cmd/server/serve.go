package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/hongminglow/reward-auth/internal/attendance"
	"github.com/hongminglow/reward-auth/internal/auth"
	"github.com/hongminglow/reward-auth/internal/config"
	"github.com/hongminglow/reward-auth/internal/errutil"
	"github.com/hongminglow/reward-auth/internal/logging"
	"github.com/hongminglow/reward-auth/internal/metrics"
	"github.com/hongminglow/reward-auth/internal/proxy"
	"github.com/hongminglow/reward-auth/internal/server"
	"github.com/hongminglow/reward-auth/internal/service"
	"github.com/hongminglow/reward-auth/internal/storage"
	"github.com/hongminglow/reward-auth/internal/storage/memory"
	"github.com/hongminglow/reward-auth/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

func runServe(ctx context.Context, flags *pflag.FlagSet) error {
	cfg, err := config.Load(flags)
	if err != nil {
		errutil.LogError(ctx, slog.Default(), "load config", err)
		return err
	}
	logger := logging.Setup("reward-auth", version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	deps := server.Deps{Gatherer: reg, Logger: logger}

	var store storage.UserStore
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory credential store; data is lost on exit")
		store = memory.NewUserStore()
	default:
		pg, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
		if err != nil {
			errutil.LogError(ctx, logger, "init database", err)
			return err
		}
		defer pg.Close()
		store = pg
		deps.Store = pg
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	secrets, err := auth.NewSecretVerifier(cfg.SecretScheme)
	if err != nil {
		return err
	}
	policy, err := attendance.New(cfg.AttendancePolicy, cfg.Location())
	if err != nil {
		return err
	}
	svc, err := service.NewAuthService(store, tokens, secrets, policy,
		service.WithMetrics(m),
		service.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	fwd, err := proxy.NewForwarder(cfg.DownstreamURL, cfg.DownstreamTimeout,
		proxy.WithMetrics(m),
		proxy.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	deps.Auth = svc
	deps.Tokens = tokens
	deps.Forwarder = fwd
	srv := server.New(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("reward-auth listening",
			"addr", cfg.HTTPAddress(),
			"store", cfg.Store,
			"attendance_policy", cfg.AttendancePolicy,
			"downstream", cfg.DownstreamURL,
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
		return err
	}
	return nil
}
