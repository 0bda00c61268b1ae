package models

import (
	"context"
	"time"
)

// CandleClient fetches price bars for the configured symbol.
type CandleClient interface {
	GetCandles(ctx context.Context, count int) ([]Candle, error)
	GetHistoricalCandles(ctx context.Context, days int) ([]Candle, error)
	GetLatestQuote(ctx context.Context) (*Quote, error)
}

// SignalStore is the persistence surface the core depends on. Retry and
// backoff policy belongs to the implementation, not the callers.
type SignalStore interface {
	SaveSignal(ctx context.Context, sig *Signal) error
	Signals(ctx context.Context, symbol string, since time.Time) ([]Signal, error)
	SaveBacktestRun(ctx context.Context, run *BacktestRun) error
	BotStats(ctx context.Context) (*BotStats, error)
}
