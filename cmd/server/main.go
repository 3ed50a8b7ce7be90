package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-orchestrator/internal/app"
	"ai-interview-orchestrator/internal/config"
	"ai-interview-orchestrator/internal/events"
	"ai-interview-orchestrator/internal/observability"
	"ai-interview-orchestrator/internal/service/feedback"
	"ai-interview-orchestrator/internal/service/scoring"
	scoringmock "ai-interview-orchestrator/internal/service/scoring/mock"
	"ai-interview-orchestrator/internal/service/scoring/openai"
	"ai-interview-orchestrator/internal/service/session"
	"ai-interview-orchestrator/internal/store"
	"ai-interview-orchestrator/internal/store/memory"
	"ai-interview-orchestrator/internal/store/postgres"
	"ai-interview-orchestrator/internal/voice"
	voicemock "ai-interview-orchestrator/internal/voice/mock"
	"ai-interview-orchestrator/internal/voice/vapi"

	apihttp "ai-interview-orchestrator/internal/http"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		application.Logger.Fatal().Err(err).Msg("application startup failed")
	}
	logger := application.Logger

	ctx := context.Background()

	st, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("store initialization failed")
	}
	defer closeStore()

	scorer, err := buildScorer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("scoring backend initialization failed")
	}

	// Kafka publisher with separate topics for partial transcripts, final
	// transcripts and session completions
	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicPartial:   cfg.Kafka.TopicPartial,
		TopicFinal:     cfg.Kafka.TopicFinal,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		Principal:      cfg.Kafka.Principal,
	})
	defer publisher.Close()

	pipeline := feedback.NewPipeline(scorer, cfg.Scoring.Backend, st, logger)
	manager := session.NewManager(
		channelFactory(cfg, logger),
		st,
		pipeline,
		publisher,
		cfg.Session.SettleDelay,
		logger,
	)

	obsServer := observability.NewServer(cfg.Observability.Addr)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      apihttp.NewRouter(application, manager, st),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", apiServer.Addr).Msg("Interview Orchestrator started")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("observability shutdown failed")
	}
	application.Shutdown()
}

func buildStore(ctx context.Context, cfg *config.Configuration) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		pg, err := postgres.New(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildScorer(cfg *config.Configuration) (scoring.Adapter, error) {
	switch cfg.Scoring.Backend {
	case "mock":
		return scoringmock.New(), nil
	case "openai":
		return openai.New(cfg.Scoring.APIKey, cfg.Scoring.Model, cfg.Scoring.Timeout)
	default:
		return nil, fmt.Errorf("unknown scoring backend %q", cfg.Scoring.Backend)
	}
}

func channelFactory(cfg *config.Configuration, logger zerolog.Logger) session.ChannelFactory {
	switch cfg.Voice.Provider {
	case "vapi":
		vcfg := vapi.Config{
			URL:       cfg.Voice.URL,
			APIKey:    cfg.Voice.APIKey,
			PublicKey: cfg.Voice.PublicKey,
		}
		return func() voice.Channel { return vapi.New(vcfg, logger) }
	default:
		return func() voice.Channel { return voicemock.New() }
	}
}
