// Package report renders signals and backtest runs as operator-facing text.
// Formatting is pure: no I/O, no side effects.
package report

import (
	"fmt"
	"strings"

	"github.com/ictoracle/trading/models"
)

var performanceMarkers = map[models.Performance]string{
	models.PerformanceExcellent:        "🟢",
	models.PerformanceGood:             "🟡",
	models.PerformanceFair:             "🟠",
	models.PerformanceNeedsImprovement: "🔴",
}

var directionMarkers = map[models.Direction]string{
	models.DirectionBuy:     "📈",
	models.DirectionSell:    "📉",
	models.DirectionNeutral: "⏸️",
}

// FormatBacktestRun renders a run's headline statistics. The four headline
// numbers are printed with exactly the precision the run stores, so parsing
// them back recovers the stored values. A run with no resolved signals
// reports its win rate as N/A rather than zero.
func FormatBacktestRun(run *models.BacktestRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Backtest Report — %s\n", run.Symbol)
	fmt.Fprintf(&b, "Period: %s → %s (%d days, %d signals/day)\n",
		run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"),
		run.Days, run.SignalsPerDay)
	fmt.Fprintf(&b, "Signals: %d evaluated (%d wins, %d losses, %d unresolved, %d skipped)\n",
		run.TotalSignals, run.Wins, run.Losses, run.Unresolved, run.Skipped)

	if run.Resolved() > 0 {
		fmt.Fprintf(&b, "Win Rate: %.2f%%\n", run.WinRate)
	} else {
		b.WriteString("Win Rate: N/A (no resolved signals)\n")
	}
	fmt.Fprintf(&b, "Total P&L: $%.2f\n", run.TotalPnL)
	fmt.Fprintf(&b, "Avg Win: $%.2f\n", run.AvgWin)
	fmt.Fprintf(&b, "Avg Loss: $%.2f\n", run.AvgLoss)
	fmt.Fprintf(&b, "%s Performance: %s\n",
		performanceMarkers[run.Performance], string(run.Performance))

	writeDailyBreakdown(&b, run)
	return b.String()
}

// writeDailyBreakdown appends one line per trading day with that day's
// resolved outcomes. Skipped when the run carries no per-signal detail.
func writeDailyBreakdown(b *strings.Builder, run *models.BacktestRun) {
	if len(run.Signals) == 0 {
		return
	}

	type dayStats struct {
		signals, wins, losses int
		pnl                   float64
	}
	byDay := make(map[string]*dayStats)
	var order []string
	for _, s := range run.Signals {
		day := s.Signal.Timestamp.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &dayStats{}
			byDay[day] = d
			order = append(order, day)
		}
		d.signals++
		switch s.Result {
		case models.OutcomeWin:
			d.wins++
			d.pnl += s.PnL
		case models.OutcomeLoss:
			d.losses++
			d.pnl += s.PnL
		}
	}

	b.WriteString("\nDaily breakdown:\n")
	for _, day := range order {
		d := byDay[day]
		fmt.Fprintf(b, "  %s: %d signals, %dW/%dL, P&L $%.2f\n",
			day, d.signals, d.wins, d.losses, d.pnl)
	}
}

// FormatSignal renders one live signal. quote may be nil when the latest
// price lookup failed; the signal itself still prints.
func FormatSignal(sig *models.Signal, quote *models.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s Signal — %s\n", directionMarkers[sig.Direction], sig.Symbol)
	fmt.Fprintf(&b, "Direction: %s\n", sig.Direction)
	fmt.Fprintf(&b, "Confidence: %d%% (%s)\n", sig.Confidence, sig.Quality)
	fmt.Fprintf(&b, "Entry: %.2f\n", sig.EntryPrice)
	if sig.Direction != models.DirectionNeutral {
		fmt.Fprintf(&b, "Stop Loss: %.2f\n", sig.StopLoss)
		fmt.Fprintf(&b, "Take Profit: %.2f\n", sig.TakeProfit)
	}
	fmt.Fprintf(&b, "Market Structure: %s\n", sig.Snapshot.Structure)
	fmt.Fprintf(&b, "RSI: %.1f\n", sig.Snapshot.RSI)

	if quote != nil {
		stale := ""
		if quote.Stale {
			stale = " (stale)"
		}
		fmt.Fprintf(&b, "Current Price: %.2f (%+.2f%%)%s\n", quote.Price, quote.ChangePct, stale)
	}

	for _, r := range sig.Reasons {
		fmt.Fprintf(&b, "  • %s\n", r)
	}

	return b.String()
}
