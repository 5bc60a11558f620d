package app

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"radar/internal/config"
	"radar/internal/dispatcher"
	"radar/internal/extractor"
	"radar/internal/metrics"
	"radar/internal/notifier"
	"radar/internal/source"
	"radar/internal/storage"
	"radar/internal/summarizer"
)

// App holds the collaborators built once at startup.
type App struct {
	DB         *sqlx.DB
	Records    *storage.RecordStorage
	Dispatcher *dispatcher.Dispatcher
	Registry   *prometheus.Registry
}

// OpenStore connects to the database and makes sure the schema exists.
func OpenStore(ctx context.Context, cfg config.Config) (*sqlx.DB, *storage.RecordStorage, error) {
	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	if err := storage.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, storage.NewRecordStorage(db), nil
}

// Build wires every collaborator from cfg.
func Build(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}

	db, records, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var excerpter dispatcher.Excerpter
	if cfg.FetchArticleText {
		excerpter = extractor.NewReadability(httpClient, cfg.ExcerptLimit)
	}

	d := dispatcher.New(dispatcher.Deps{
		Source:     source.NewRSSSource(cfg.FeedURL, httpClient, cfg.Keywords()),
		Records:    records,
		Summarizer: summarizer.NewGemini(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, log.WithField("component", "summarizer")),
		Notifier:   notifier.New(botAPI, cfg.TelegramChatID),
		Excerpter:  excerpter,
		Metrics:    metrics.New(registry),
		Logger:     log.WithField("component", "dispatcher"),
		ScanLimit:  cfg.ScanLimit,
	})

	return &App{
		DB:         db,
		Records:    records,
		Dispatcher: d,
		Registry:   registry,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
