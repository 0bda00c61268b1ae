// Package backtest replays the signal generator over historical candles and
// scores each signal against the price action that followed it.
package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/internal/signal"
	"github.com/ictoracle/trading/models"
)

// runNamespace seeds deterministic run IDs: identical window and settings
// always produce the same ID.
var runNamespace = uuid.MustParse("4f2d7c03-9e61-4b5a-8d2f-1c7b3a90e584")

// Engine runs backtests. Everything downstream of the candle fetch is
// deterministic: same history and configuration, same run.
type Engine struct {
	cfg    *config.Config
	client models.CandleClient
	gen    *signal.Generator
	store  models.SignalStore // nil disables persistence
	log    zerolog.Logger
}

// New creates a backtest engine. store may be nil.
func New(cfg *config.Config, client models.CandleClient, gen *signal.Generator, store models.SignalStore) *Engine {
	return &Engine{
		cfg:    cfg,
		client: client,
		gen:    gen,
		store:  store,
		log:    log.With().Str("component", "backtest").Logger(),
	}
}

// Run fetches history covering the configured day count plus indicator
// warmup, evaluates evenly spaced points across the window, and aggregates
// the outcomes. Fails with ErrInsufficientHistory rather than reporting a
// silently shortened window.
func (e *Engine) Run(ctx context.Context) (*models.BacktestRun, error) {
	days := e.cfg.BacktestDays
	perDay := models.CandlesPerDay(e.cfg.Interval)
	warmup := e.cfg.MinWindow()

	// Extra days so the first evaluation point has a full indicator window
	// behind it.
	warmupDays := (warmup + perDay - 1) / perDay
	candles, err := e.client.GetHistoricalCandles(ctx, days+warmupDays)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	run, err := e.Replay(candles)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.SaveBacktestRun(ctx, run); err != nil {
			e.log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to persist backtest run")
		}
	}

	e.log.Info().
		Str("run_id", run.ID).
		Int("total", run.TotalSignals).
		Int("wins", run.Wins).
		Int("losses", run.Losses).
		Float64("win_rate", run.WinRate).
		Float64("total_pnl", run.TotalPnL).
		Str("performance", string(run.Performance)).
		Msg("backtest complete")

	return run, nil
}

// Replay scores the configured number of evaluation points against an
// already-fetched candle history. Pure except for the generator's own
// computation; exposed separately so tests can feed synthetic data.
func (e *Engine) Replay(candles []models.Candle) (*models.BacktestRun, error) {
	days := e.cfg.BacktestDays
	perDay := models.CandlesPerDay(e.cfg.Interval)
	warmup := e.cfg.MinWindow()

	span := days * perDay
	if len(candles) < warmup+span {
		return nil, fmt.Errorf("%w: need %d candles for %d days at %s, got %d",
			models.ErrInsufficientHistory, warmup+span, days, e.cfg.Interval, len(candles))
	}

	// Evaluation points sit in the last span bars, evenly spaced.
	base := len(candles) - span
	total := days * e.cfg.SignalsPerDay

	scored := make([]models.ScoredSignal, 0, total)
	for k := 0; k < total; k++ {
		idx := base + k*span/total

		start := idx + 1 - e.cfg.CandleCount
		if start < 0 {
			start = 0
		}
		sig, err := e.gen.Evaluate(candles[start : idx+1])
		if err != nil {
			return nil, fmt.Errorf("evaluating bar %d: %w", idx, err)
		}

		scored = append(scored, resolve(candles, idx, sig))
	}

	run := aggregate(scored, e.cfg)
	run.StartDate = candles[base].Timestamp
	run.EndDate = candles[len(candles)-1].Timestamp
	run.ID = runID(e.cfg.Symbol, run)
	return run, nil
}

// resolve scans forward from the signal's bar until take-profit or stop-loss
// is touched, or the window ends. When one bar spans both levels the stop is
// counted first.
func resolve(candles []models.Candle, idx int, sig *models.Signal) models.ScoredSignal {
	if sig.Direction == models.DirectionNeutral {
		return models.ScoredSignal{
			Signal:     *sig,
			ExitReason: models.ExitSkipped,
			Result:     models.OutcomeSkipped,
		}
	}

	for j := idx + 1; j < len(candles); j++ {
		bar := candles[j]
		switch sig.Direction {
		case models.DirectionBuy:
			if bar.Low <= sig.StopLoss {
				return exited(sig, sig.StopLoss, models.ExitStopHit, models.OutcomeLoss)
			}
			if bar.High >= sig.TakeProfit {
				return exited(sig, sig.TakeProfit, models.ExitTargetHit, models.OutcomeWin)
			}
		case models.DirectionSell:
			if bar.High >= sig.StopLoss {
				return exited(sig, sig.StopLoss, models.ExitStopHit, models.OutcomeLoss)
			}
			if bar.Low <= sig.TakeProfit {
				return exited(sig, sig.TakeProfit, models.ExitTargetHit, models.OutcomeWin)
			}
		}
	}

	// Window ended with the position still open. Excluded from the win-rate
	// denominator and from P&L.
	return models.ScoredSignal{
		Signal:     *sig,
		ExitPrice:  candles[len(candles)-1].Close,
		ExitReason: models.ExitExpired,
		Result:     models.OutcomeUnresolved,
	}
}

func exited(sig *models.Signal, exit float64, reason models.ExitReason, result models.Outcome) models.ScoredSignal {
	pnl := exit - sig.EntryPrice
	if sig.Direction == models.DirectionSell {
		pnl = sig.EntryPrice - exit
	}
	return models.ScoredSignal{
		Signal:     *sig,
		ExitPrice:  exit,
		ExitReason: reason,
		PnL:        pnl,
		Result:     result,
	}
}

// aggregate computes the run's headline statistics. Values are rounded to
// two decimals here so formatting and parsing them back is lossless.
func aggregate(scored []models.ScoredSignal, cfg *config.Config) *models.BacktestRun {
	run := &models.BacktestRun{
		Symbol:        cfg.Symbol,
		Days:          cfg.BacktestDays,
		SignalsPerDay: cfg.SignalsPerDay,
		TotalSignals:  len(scored),
		Signals:       scored,
	}

	var winSum, lossSum float64
	for _, s := range scored {
		switch s.Result {
		case models.OutcomeWin:
			run.Wins++
			winSum += s.PnL
		case models.OutcomeLoss:
			run.Losses++
			lossSum += s.PnL
		case models.OutcomeUnresolved:
			run.Unresolved++
		case models.OutcomeSkipped:
			run.Skipped++
		}
	}

	if resolved := run.Resolved(); resolved > 0 {
		run.WinRate = round2(float64(run.Wins) / float64(resolved) * 100)
	}
	run.TotalPnL = round2(winSum + lossSum)
	if run.Wins > 0 {
		run.AvgWin = round2(winSum / float64(run.Wins))
	}
	if run.Losses > 0 {
		run.AvgLoss = round2(lossSum / float64(run.Losses))
	}
	run.Performance = Classify(run.WinRate, run.TotalPnL, run.Resolved())
	return run
}

// Classify buckets a run by win rate and realized P&L. A run with no
// resolved signals has nothing to stand on and lands in NEEDS_IMPROVEMENT.
func Classify(winRate, totalPnL float64, resolved int) models.Performance {
	if resolved == 0 {
		return models.PerformanceNeedsImprovement
	}
	switch {
	case winRate >= 70 && totalPnL > 0:
		return models.PerformanceExcellent
	case winRate >= 60 && totalPnL >= 0:
		return models.PerformanceGood
	case winRate >= 50:
		return models.PerformanceFair
	default:
		return models.PerformanceNeedsImprovement
	}
}

func runID(symbol string, run *models.BacktestRun) string {
	name := fmt.Sprintf("%s|%d|%d|%d|%d",
		symbol, run.StartDate.Unix(), run.EndDate.Unix(), run.Days, run.SignalsPerDay)
	return uuid.NewSHA1(runNamespace, []byte(name)).String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
