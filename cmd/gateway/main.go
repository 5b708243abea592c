package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	callbackmetrics "linkgate/internal/callback/metrics"
	callbacksvc "linkgate/internal/callback/service"
	"linkgate/internal/callback/tracer"
	"linkgate/internal/deeplink"
	"linkgate/internal/platform/config"
	"linkgate/internal/platform/logger"
	platformredis "linkgate/internal/platform/redis"
	"linkgate/internal/provider/devstub"
	ratelimitmetrics "linkgate/internal/ratelimit/metrics"
	"linkgate/internal/ratelimit/service/authlimit"
	attemptstore "linkgate/internal/ratelimit/store/authlimit"
	"linkgate/internal/ratelimit/workers/cleanup"
	"linkgate/internal/statetoken"
	httptransport "linkgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogPolicy)

	log.Info("initializing linkgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"store_backend", string(cfg.StateStore),
	)

	var tokenStore statetoken.Store
	switch cfg.StateStore {
	case config.StateStoreRedis:
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		if client == nil {
			log.Error("state store is redis but LINKGATE_REDIS_URL is empty")
			os.Exit(1)
		}
		defer client.Close() //nolint:errcheck // best-effort cleanup on exit
		tokenStore = statetoken.NewRedisStore(client.Client)
	default:
		tokenStore = statetoken.NewInMemoryStore()
	}

	tokens, err := statetoken.New(tokenStore, statetoken.WithLogger(log))
	if err != nil {
		log.Error("state token manager init failed", "error", err)
		os.Exit(1)
	}

	provider, err := devstub.New([]byte(cfg.DevSecret), devstub.WithLogger(log))
	if err != nil {
		log.Error("session provider init failed", "error", err)
		os.Exit(1)
	}

	rlMetrics := ratelimitmetrics.New()
	attempts := attemptstore.New()
	limiter, err := authlimit.New(attempts,
		authlimit.WithLogger(log),
		authlimit.WithMetrics(rlMetrics),
	)
	if err != nil {
		log.Error("rate limiter init failed", "error", err)
		os.Exit(1)
	}

	sweeper := cleanup.New(attempts,
		cleanup.WithLogger(log),
		cleanup.WithInterval(cfg.SweepInterval),
		cleanup.WithMetrics(rlMetrics),
	)

	callbacks, err := callbacksvc.New(deeplink.NewValidator(), tokens, provider,
		callbacksvc.WithLogger(log),
		callbacksvc.WithMetrics(callbackmetrics.New()),
		callbacksvc.WithTracer(tracer.NewOTel()),
	)
	if err != nil {
		log.Error("callback orchestrator init failed", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(callbacks, tokens, limiter, provider, log)
	router := httptransport.NewRouter(handler, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("gateway exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
