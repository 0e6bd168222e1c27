package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "pkdconsole/internal/jwt_token"
	"pkdconsole/internal/platform/config"
	"pkdconsole/internal/platform/httpserver"
	"pkdconsole/internal/platform/logger"
	"pkdconsole/internal/platform/metrics"
	platformredis "pkdconsole/internal/platform/redis"
	"pkdconsole/internal/verification/client"
	"pkdconsole/internal/verification/handler"
	vmetrics "pkdconsole/internal/verification/metrics"
	"pkdconsole/internal/verification/service"
	"pkdconsole/internal/verification/store/history"
	"pkdconsole/internal/verification/store/session"
	"pkdconsole/pkg/platform/audit/publisher"
	auditkafka "pkdconsole/pkg/platform/audit/sinks/kafka"
	auditmemory "pkdconsole/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var verifier client.Verifier = &client.MockVerifier{}
	if cfg.Verifier.BaseURL != "" {
		verifier = client.NewHTTPVerifier(cfg.Verifier.BaseURL, cfg.Verifier.Timeout)
	} else {
		log.Warn("no VERIFIER_URL configured, using the built-in mock verifier")
	}

	var sessions session.Store = session.NewInMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient.Client, session.DefaultTTL)
		defer redisClient.Close()
	}

	var historyStore history.Store = history.NewInMemoryStore()
	if cfg.Postgres.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := history.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			cancel()
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		pgStore := history.NewPostgresStore(db)
		if err := pgStore.Migrate(ctx); err != nil {
			cancel()
			log.Error("history migration failed", "error", err)
			os.Exit(1)
		}
		cancel()
		historyStore = pgStore
		defer db.Close()
	}

	auditOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, publisher.WithSink(sink))
	}
	auditPub := publisher.NewPublisher(auditmemory.NewInMemoryStore(), auditOpts...)
	defer auditPub.Close()

	httpMetrics := metrics.New()
	svc := service.New(verifier, sessions,
		service.WithHistory(historyStore),
		service.WithAudit(auditPub),
		service.WithMetrics(vmetrics.New()),
		service.WithLogger(log),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "pkdconsole", "console")
	h := handler.New(svc, log, httpMetrics, jwttoken.NewJWTServiceAdapter(jwtService), cfg.AdminTokenHash)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	h.Register(router)

	srv := httpserver.New(cfg.Addr, cfg.HTTP, router)

	log.Info("starting pkdconsole", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
