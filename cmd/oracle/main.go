package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ictoracle/trading/internal/api/twelvedata"
	"github.com/ictoracle/trading/internal/backtest"
	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/internal/report"
	sig "github.com/ictoracle/trading/internal/signal"
	"github.com/ictoracle/trading/internal/storage"
	"github.com/ictoracle/trading/models"
)

// oracle is the one-shot CLI: run a backtest when enabled, then generate and
// print one live signal. Exits non-zero on any unrecoverable failure.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting ICT Trading Oracle")
	printConfig(cfg)

	client := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		Symbol:         cfg.Symbol,
		Interval:       cfg.Interval,
		RequestTimeout: time.Duration(cfg.APITimeout) * time.Second,
		RequestsPerSec: 5,
		CacheTTL:       time.Duration(cfg.CacheDuration) * time.Second,
	})

	// Persistence is best effort for a one-shot run.
	var store models.SignalStore
	if db, err := storage.Open(cfg); err != nil {
		log.Warn().Err(err).Msg("Storage unavailable, continuing without persistence")
	} else {
		defer db.Close()
		store = db
	}

	generator := sig.New(cfg, client, store)

	if cfg.BacktestEnabled {
		if err := runBacktesting(ctx, cfg, client, generator, store); err != nil {
			log.Fatal().Err(err).Msg("Backtest failed")
		}
	}

	if err := runLiveSignal(ctx, client, generator); err != nil {
		log.Fatal().Err(err).Msg("Signal generation failed")
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
		os.Exit(0)
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Interval", cfg.Interval).
		Int("CandleCount", cfg.CandleCount).
		Int("RSIPeriod", cfg.RSIPeriod).
		Int("SwingWindow", cfg.SwingWindow).
		Float64("DisplacementThreshold", cfg.DisplacementThreshold).
		Int("ConfidenceThreshold", cfg.ConfidenceThreshold).
		Bool("BacktestEnabled", cfg.BacktestEnabled).
		Int("BacktestDays", cfg.BacktestDays).
		Int("SignalsPerDay", cfg.SignalsPerDay).
		Msg("Configuration loaded")
}

// runBacktesting replays the generator over history and prints the report.
func runBacktesting(ctx context.Context, cfg *config.Config, client models.CandleClient,
	generator *sig.Generator, store models.SignalStore) error {

	log.Info().Msg("Running backtest...")
	engine := backtest.New(cfg, client, generator, store)

	run, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.FormatBacktestRun(run))
	return nil
}

// runLiveSignal generates one signal from the latest data and prints it.
func runLiveSignal(ctx context.Context, client models.CandleClient, generator *sig.Generator) error {
	log.Info().Msg("Generating live signal...")

	signal, err := generator.Generate(ctx)
	if err != nil {
		return err
	}

	quote, err := client.GetLatestQuote(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Latest quote unavailable")
		quote = nil
	}

	fmt.Println(report.FormatSignal(signal, quote))
	return nil
}
