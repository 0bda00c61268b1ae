package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ictoracle/trading/internal/api/twelvedata"
	"github.com/ictoracle/trading/internal/backtest"
	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/internal/notifier"
	"github.com/ictoracle/trading/internal/report"
	"github.com/ictoracle/trading/internal/scheduler"
	sig "github.com/ictoracle/trading/internal/signal"
	"github.com/ictoracle/trading/internal/storage"
	"github.com/ictoracle/trading/models"
)

// bot is the long-running service: scheduled signal generation with
// persistence and Telegram delivery.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting ICT Trading Bot")

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	client := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		Symbol:         cfg.Symbol,
		Interval:       cfg.Interval,
		RequestTimeout: time.Duration(cfg.APITimeout) * time.Second,
		RequestsPerSec: 5,
		CacheTTL:       time.Duration(cfg.CacheDuration) * time.Second,
	})

	tg, err := notifier.New(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	if tg == nil {
		log.Warn().Msg("No Telegram token configured, notifications disabled")
	}

	generator := sig.New(cfg, client, store)

	// One backtest on startup so the operator sees current strategy health.
	if cfg.BacktestEnabled {
		runStartupBacktest(ctx, cfg, client, generator, store, tg)
	}

	sched, err := scheduler.New(ctx, cfg.SignalsPerDay, func(ctx context.Context) {
		signalTask(ctx, client, generator, tg)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build scheduler")
	}
	sched.Start()
	defer sched.Stop()

	waitForShutdown(cancel)
}

func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

func waitForShutdown(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("Shutdown signal received, stopping...")
	cancel()
}

// signalTask is one scheduled tick: generate, persist, notify.
func signalTask(ctx context.Context, client models.CandleClient, generator *sig.Generator, tg *notifier.Telegram) {
	signal, err := generator.Generate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled signal generation failed")
		return
	}

	// Neutral ticks stay in the log; only actionable signals reach the chat.
	if signal.Direction == models.DirectionNeutral {
		return
	}

	quote, err := client.GetLatestQuote(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Latest quote unavailable")
		quote = nil
	}
	if err := tg.Send(ctx, report.FormatSignal(signal, quote)); err != nil {
		log.Error().Err(err).Msg("Signal notification failed")
	}
}

func runStartupBacktest(ctx context.Context, cfg *config.Config, client models.CandleClient,
	generator *sig.Generator, store models.SignalStore, tg *notifier.Telegram) {

	run, err := backtest.New(cfg, client, generator, store).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Startup backtest failed")
		return
	}
	if err := tg.Send(ctx, report.FormatBacktestRun(run)); err != nil {
		log.Error().Err(err).Msg("Backtest notification failed")
	}
}
