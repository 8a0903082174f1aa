package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"example.com/wellbeing/internal/api"
	"example.com/wellbeing/internal/auth"
	"example.com/wellbeing/internal/bootstrap"
	"example.com/wellbeing/internal/config"
	"example.com/wellbeing/internal/outbox"
	httptransport "example.com/wellbeing/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open backends: %v", err)
	}
	defer backends.Close()

	tr := backends.NewTracker(cfg)
	sched, err := bootstrap.NewScoringScheduler(cfg, tr)
	if err != nil {
		log.Fatalf("invalid scoring schedule: %v", err)
	}

	handler := api.NewHandler(tr)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), authMiddleware.Wrap(logger(mux)))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("wellbeing api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
		return nil
	})
	g.Go(func() error { return ignoreCanceled(tr.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(sched.Run(gctx)) })

	if backends.Pool != nil {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher := outbox.NewDispatcher(backends.Pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		g.Go(func() error {
			dispatcher.Start(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("wellbeing api stopped with error: %v", err)
	}

	// Commit final scores for everyone still signed in.
	finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tr.Shutdown(finalCtx)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
