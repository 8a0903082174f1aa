package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"example.com/wellbeing/internal/bootstrap"
	"example.com/wellbeing/internal/config"
	"example.com/wellbeing/internal/consumer"
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
	handler := consumer.NewSampleHandler(tr, nil)

	metricsSrv := httptransport.NewMetricsServer(cfg.MetricsAddress)
	go func() {
		log.Printf("consumer metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(tr.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(sched.Run(gctx)) })

	for _, topic := range cfg.SensorTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			RetentionTime:   24 * time.Hour,
			ReadLagInterval: -1,
		})
		proc := consumer.NewProcessor(reader, handler)

		g.Go(func() error {
			defer reader.Close()
			log.Printf("consumer started (topic=%s, group=%s)", topic, cfg.ConsumerGroupID)
			return ignoreCanceled(proc.Run(gctx))
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("consumer stopped with error: %v", err)
	}
	log.Println("consumer shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tr.Shutdown(shutdownCtx)
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
