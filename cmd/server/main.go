package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"live-caption-room-service/internal/config"
	"live-caption-room-service/internal/events"
	"live-caption-room-service/internal/httpapi"
	"live-caption-room-service/internal/ingest"
	"live-caption-room-service/internal/observability/logging"
	"live-caption-room-service/internal/observability/metrics"
	"live-caption-room-service/internal/room"
	"live-caption-room-service/internal/stt"
	sttgoogle "live-caption-room-service/internal/stt/google"
	sttmock "live-caption-room-service/internal/stt/mock"
	"live-caption-room-service/internal/translate"
	"live-caption-room-service/internal/translate/deepl"
	translatemock "live-caption-room-service/internal/translate/mock"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty for defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		TimeFormat: time.RFC3339,
	})
	logger := logging.WithComponent("main")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	rooms := room.NewRegistry(m, room.Options{
		QueueCapacity: cfg.Rooms.QueueCapacity,
		RoomTTL:       time.Duration(cfg.Rooms.RoomTTLMinutes) * time.Minute,
		SweepInterval: time.Duration(cfg.Rooms.SweepIntervalSec) * time.Second,
	})
	defer rooms.Close()

	ctx := context.Background()

	transcriber, closeTranscriber, err := buildTranscriber(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transcription backend")
	}
	defer closeTranscriber()

	translator := buildTranslator(cfg)
	languages, err := translator.SupportedLanguages(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to query supported languages, listing will be empty")
	}

	publisher := events.New(&cfg.Kafka, m)
	defer publisher.Close()

	pipeline := ingest.NewPipeline(rooms, transcriber, translator, publisher, m)

	api := httpapi.NewServer(rooms, pipeline, languages, ingest.SessionOptions{
		Policy:       cfg.Audio.Policy,
		SampleRate:   cfg.Audio.SampleRate,
		MinChunk:     time.Duration(cfg.Audio.MinChunkSeconds * float64(time.Second)),
		SilenceFlush: time.Duration(cfg.Audio.SilenceFlushMs) * time.Millisecond,
		MaxWindow:    time.Duration(cfg.Audio.MaxWindowSec) * time.Second,
		VADThreshold: cfg.Audio.VADThreshold,
		FlushAfter:   cfg.Audio.FlushAfterSec,
		ContextWords: cfg.Audio.ContextWords,
	}, reg)

	// No WriteTimeout: the event stream and producer sockets are long-lived.
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address).Msg("live caption room service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}

func buildTranscriber(ctx context.Context, cfg *config.Config) (stt.Transcriber, func(), error) {
	switch cfg.Transcription.Backend {
	case "google":
		g, err := sttgoogle.New(ctx, sttgoogle.Config{
			SampleRate:   cfg.Audio.SampleRate,
			LanguageCode: cfg.Transcription.LanguageCode,
		})
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	default:
		return sttmock.New(), func() {}, nil
	}
}

func buildTranslator(cfg *config.Config) translate.Translator {
	switch cfg.Translation.Backend {
	case "deepl":
		return deepl.New(cfg.Translation.BaseURL, cfg.Translation.APIKey, cfg.Translation.SourceLang)
	default:
		return translatemock.New()
	}
}
