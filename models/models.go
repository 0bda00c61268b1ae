package models

import (
	"time"
)

// Candle represents a single price bar. Candles are immutable once recorded
// and ordered by timestamp with no duplicates per symbol.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume,omitempty"`
}

// Quote is the latest known price for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"` // vs previous close
	Timestamp time.Time `json:"timestamp"`
	Stale     bool      `json:"stale,omitempty"` // served from cache after a feed outage
}

// TwelveResponse represents the API response from Twelve Data.
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status string `json:"status"`
}

// MarketStructure classifies the swing-point trend of a window.
type MarketStructure string

const (
	StructureBullish MarketStructure = "BULLISH"
	StructureBearish MarketStructure = "BEARISH"
	StructureRanging MarketStructure = "RANGING"
)

// OrderBlockKind tags the direction of an order block.
type OrderBlockKind string

const (
	BullishOB OrderBlockKind = "BULLISH_OB"
	BearishOB OrderBlockKind = "BEARISH_OB"
)

// OrderBlock is a price region where institutional-style reversal activity is
// inferred from a displacement candle and the opposing candle before it.
type OrderBlock struct {
	Kind      OrderBlockKind `json:"kind"`
	High      float64        `json:"high"`
	Low       float64        `json:"low"`
	Timestamp time.Time      `json:"timestamp"`
}

// Contains reports whether price sits inside the block's range.
func (ob OrderBlock) Contains(price float64) bool {
	return price >= ob.Low && price <= ob.High
}

// GapKind tags the direction of a fair value gap.
type GapKind string

const (
	BullishFVG GapKind = "BULLISH_FVG"
	BearishFVG GapKind = "BEARISH_FVG"
)

// FairValueGap is an unfilled price gap between the ranges of two candles
// separated by one bar.
type FairValueGap struct {
	Kind      GapKind   `json:"kind"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Timestamp time.Time `json:"timestamp"`
	Filled    bool      `json:"filled"`
}

// Contains reports whether price sits inside the gap.
func (g FairValueGap) Contains(price float64) bool {
	return price >= g.Low && price <= g.High
}

// OrderBlockState summarises order-block detection for a snapshot.
type OrderBlockState string

const (
	OrderBlockConfirmed OrderBlockState = "CONFIRMED"
	OrderBlockNone      OrderBlockState = "NONE"
)

// GapState summarises fair-value-gap detection for a snapshot.
type GapState string

const (
	GapActive GapState = "ACTIVE"
	GapFilled GapState = "FILLED"
	GapNone   GapState = "NONE"
)

// IndicatorSnapshot holds every indicator computed over one price window.
// It is a pure function of the window: identical candles always yield an
// identical snapshot, which backtest reproducibility depends on.
type IndicatorSnapshot struct {
	Timestamp        time.Time       `json:"timestamp"`
	RSI              float64         `json:"rsi"`
	MACD             float64         `json:"macd"`
	MACDSignal       float64         `json:"macd_signal"`
	MACDHist         float64         `json:"macd_hist"`
	EMAFast          float64         `json:"ema_fast"`
	EMASlow          float64         `json:"ema_slow"`
	SMA20            float64         `json:"sma_20"`
	SMA50            float64         `json:"sma_50"`
	BBUpper          float64         `json:"bb_upper"`
	BBMiddle         float64         `json:"bb_middle"`
	BBLower          float64         `json:"bb_lower"`
	ATR              float64         `json:"atr"`
	Stochastic       float64         `json:"stochastic"`
	StochasticSignal float64         `json:"stochastic_signal"`
	VolumeRatio      float64         `json:"volume_ratio,omitempty"`
	Structure        MarketStructure `json:"market_structure"`
	OrderBlocks      []OrderBlock    `json:"order_blocks,omitempty"`
	Gaps             []FairValueGap  `json:"fair_value_gaps,omitempty"`
	OrderBlockState  OrderBlockState `json:"order_block"`
	GapState         GapState        `json:"fair_value_gap"`
}

// Direction is the discrete trading signal.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Quality buckets a signal by confidence.
type Quality string

const (
	QualityExcellent Quality = "EXCELLENT"
	QualityGood      Quality = "GOOD"
	QualityFair      Quality = "FAIR"
)

// QualityFor maps a confidence score to its quality bucket.
func QualityFor(confidence int) Quality {
	switch {
	case confidence >= 80:
		return QualityExcellent
	case confidence >= 60:
		return QualityGood
	default:
		return QualityFair
	}
}

// Signal is one issued trading signal. Immutable after creation.
type Signal struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Symbol     string            `json:"symbol"`
	Direction  Direction         `json:"direction"`
	Confidence int               `json:"confidence"` // 0-100
	Score      int               `json:"score"`      // raw ICT score, -100..100
	EntryPrice float64           `json:"entry_price"`
	StopLoss   float64           `json:"stop_loss"`
	TakeProfit float64           `json:"take_profit"`
	Quality    Quality           `json:"quality"`
	Reasons    []string          `json:"reasons,omitempty"`
	Snapshot   IndicatorSnapshot `json:"snapshot"`
}

// ExitReason records how a backtested signal left the market.
type ExitReason string

const (
	ExitTargetHit ExitReason = "TARGET_HIT"
	ExitStopHit   ExitReason = "STOP_HIT"
	ExitExpired   ExitReason = "EXPIRED" // window ended before either level was touched
	ExitSkipped   ExitReason = "SKIPPED" // NEUTRAL signal, no position taken
)

// Outcome is the resolved result of a backtested signal.
type Outcome string

const (
	OutcomeWin        Outcome = "WIN"
	OutcomeLoss       Outcome = "LOSS"
	OutcomeUnresolved Outcome = "UNRESOLVED"
	OutcomeSkipped    Outcome = "SKIPPED"
)

// ScoredSignal pairs a signal with its simulated outcome.
type ScoredSignal struct {
	Signal     Signal     `json:"signal"`
	ExitPrice  float64    `json:"exit_price"`
	ExitReason ExitReason `json:"exit_reason"`
	PnL        float64    `json:"pnl"`
	Result     Outcome    `json:"result"`
}

// Performance classifies a whole backtest run.
type Performance string

const (
	PerformanceExcellent        Performance = "EXCELLENT"
	PerformanceGood             Performance = "GOOD"
	PerformanceFair             Performance = "FAIR"
	PerformanceNeedsImprovement Performance = "NEEDS_IMPROVEMENT"
)

// BacktestRun aggregates one backtest execution. Re-running produces a new
// run; existing runs are never mutated.
type BacktestRun struct {
	ID            string         `json:"id"`
	Symbol        string         `json:"symbol"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	Days          int            `json:"days"`
	SignalsPerDay int            `json:"signals_per_day"`
	TotalSignals  int            `json:"total_signals"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	Unresolved    int            `json:"unresolved"`
	Skipped       int            `json:"skipped"`
	WinRate       float64        `json:"win_rate"` // percent; meaningful only when Resolved() > 0
	TotalPnL      float64        `json:"total_pnl"`
	AvgWin        float64        `json:"avg_win"`
	AvgLoss       float64        `json:"avg_loss"`
	Performance   Performance    `json:"performance"`
	Signals       []ScoredSignal `json:"signals,omitempty"`
}

// Resolved is the number of signals whose outcome was decided by price action.
func (r *BacktestRun) Resolved() int {
	return r.Wins + r.Losses
}

// BotStats is the operator-facing usage summary from the store.
type BotStats struct {
	TotalUsers   int `json:"total_users"`
	ActiveUsers  int `json:"active_users"`
	TotalSignals int `json:"total_signals"`
	DailySignals int `json:"daily_signals"`
}

// User is a registered bot user.
type User struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
	LastActivity time.Time `json:"last_activity"`
	IsActive     bool      `json:"is_active"`
}
