// Package syncworker hosts the event consumer that keeps the search index
// and projection store synchronized with upstream bookmark events.
package syncworker

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/linkgrove/searchsync/internal/config"
	"github.com/linkgrove/searchsync/internal/dispatch"
	"github.com/linkgrove/searchsync/internal/factory"
	"github.com/linkgrove/searchsync/internal/handlers"
	"github.com/linkgrove/searchsync/internal/logger"
	"github.com/linkgrove/searchsync/internal/pagetext"
	"github.com/linkgrove/searchsync/internal/pubsub"
	"github.com/linkgrove/searchsync/internal/services"
)

// Run starts the sync worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("sync-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("nats_url", cfg.NatsURL).
		Str("stream", cfg.StreamName).
		Str("consumer", cfg.ConsumerName).
		Msg("sync worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("projection store unavailable")
		return err
	}
	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("search index unavailable")
		return err
	}

	pages := pagetext.NewFetcher(
		time.Duration(cfg.PageFetchTimeoutSeconds)*time.Second,
		cfg.FullPageMaxChars,
		log,
	)

	registry := services.NewRegistryService(st, idx, pages, cfg.FanoutConcurrency, log)
	projection := services.NewProjectionService(st, idx, pages, log)
	notifications := services.NewNotificationService(st, log)

	dispatcher := dispatch.New(handlers.Routes(registry, projection, notifications, log), log)

	nc, err := nats.Connect(cfg.NatsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		log.Error().Stack().Err(err).Str("url", cfg.NatsURL).Msg("nats connect failed")
		return err
	}
	defer func() { _ = nc.Drain() }()

	consumer, err := pubsub.NewConsumer(nc, dispatcher, cfg.StreamName, cfg.ConsumerName, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("consumer setup failed")
		return err
	}

	if err := consumer.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Stack().Err(err).Msg("sync worker exit")
		return err
	}
	return nil
}
