// Package signal turns an indicator snapshot into a trading signal using
// ICT-style confluence scoring.
package signal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/internal/indicators"
	"github.com/ictoracle/trading/models"
)

// Score weights. Structure and order blocks dominate; momentum indicators
// only nudge the total.
const (
	structureWeight  = 20
	orderBlockWeight = 25
	gapWeight        = 15
	rsiWeight        = 10
	macdWeight       = 5

	// buyThreshold and sellThreshold bound the NEUTRAL band.
	buyThreshold  = 30
	sellThreshold = -30

	// neutralConfidence is reported when no directional case exists.
	neutralConfidence = 50
	confidenceFloor   = 40
	confidenceCap     = 95
)

// signalNamespace seeds deterministic signal IDs: the same symbol and bar
// always produce the same ID.
var signalNamespace = uuid.MustParse("8a9bbf11-2f45-4c8e-9c1a-6d0e54a7f310")

// Generator produces trading signals from live or historical candle windows.
type Generator struct {
	cfg    *config.Config
	client models.CandleClient
	store  models.SignalStore // nil disables persistence
	log    zerolog.Logger
}

// New creates a signal generator. store may be nil; persistence failures are
// logged, never fatal.
func New(cfg *config.Config, client models.CandleClient, store models.SignalStore) *Generator {
	return &Generator{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    log.With().Str("component", "signal").Logger(),
	}
}

// Generate fetches the latest window, evaluates it, and persists the result.
func (g *Generator) Generate(ctx context.Context) (*models.Signal, error) {
	candles, err := g.client.GetCandles(ctx, g.cfg.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}

	sig, err := g.Evaluate(candles)
	if err != nil {
		return nil, err
	}

	if g.store != nil {
		if err := g.store.SaveSignal(ctx, sig); err != nil {
			g.log.Warn().Err(err).Str("signal_id", sig.ID).Msg("failed to persist signal")
		}
	}

	g.log.Info().
		Str("signal_id", sig.ID).
		Str("direction", string(sig.Direction)).
		Int("confidence", sig.Confidence).
		Int("score", sig.Score).
		Float64("entry", sig.EntryPrice).
		Msg("signal generated")

	return sig, nil
}

// Evaluate scores one candle window. Pure: no I/O, no persistence, and the
// same window always yields the same signal. The backtest engine calls this
// directly on historical slices.
func (g *Generator) Evaluate(candles []models.Candle) (*models.Signal, error) {
	snap, err := indicators.ComputeSnapshot(candles, g.cfg)
	if err != nil {
		return nil, err
	}

	last := candles[len(candles)-1]
	score, reasons := confluenceScore(snap, last.Close)
	// Reasons accumulate heaviest factors first; keep the top three.
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	direction := models.DirectionNeutral
	switch {
	case score >= buyThreshold:
		direction = models.DirectionBuy
	case score <= sellThreshold:
		direction = models.DirectionSell
	}

	confidence := neutralConfidence
	if direction != models.DirectionNeutral {
		confidence = abs(score) + confidenceFloor
		if confidence > confidenceCap {
			confidence = confidenceCap
		}
	}

	// A directional call below the confidence bar is not worth trading.
	if direction != models.DirectionNeutral && confidence < g.cfg.ConfidenceThreshold {
		reasons = append(reasons, fmt.Sprintf("confidence %d below threshold %d, standing aside",
			confidence, g.cfg.ConfidenceThreshold))
		direction = models.DirectionNeutral
	}

	sig := &models.Signal{
		ID:         signalID(g.cfg.Symbol, snap),
		Timestamp:  last.Timestamp,
		Symbol:     g.cfg.Symbol,
		Direction:  direction,
		Confidence: confidence,
		Score:      score,
		EntryPrice: last.Close,
		Quality:    models.QualityFor(confidence),
		Reasons:    reasons,
		Snapshot:   *snap,
	}

	switch direction {
	case models.DirectionBuy:
		sig.StopLoss = last.Close - g.cfg.StopLossATR*snap.ATR
		sig.TakeProfit = last.Close + g.cfg.TakeProfitATR*snap.ATR
	case models.DirectionSell:
		sig.StopLoss = last.Close + g.cfg.StopLossATR*snap.ATR
		sig.TakeProfit = last.Close - g.cfg.TakeProfitATR*snap.ATR
	}

	return sig, nil
}

// confluenceScore sums the weighted evidence for and against a long position.
// Positive favours BUY, negative favours SELL.
func confluenceScore(snap *models.IndicatorSnapshot, price float64) (int, []string) {
	var score int
	var reasons []string

	switch snap.Structure {
	case models.StructureBullish:
		score += structureWeight
		reasons = append(reasons, "bullish market structure (higher highs, higher lows)")
	case models.StructureBearish:
		score -= structureWeight
		reasons = append(reasons, "bearish market structure (lower highs, lower lows)")
	}

	for _, ob := range snap.OrderBlocks {
		if !ob.Contains(price) {
			continue
		}
		if ob.Kind == models.BullishOB {
			score += orderBlockWeight
			reasons = append(reasons, fmt.Sprintf("price inside bullish order block [%.2f, %.2f]", ob.Low, ob.High))
		} else {
			score -= orderBlockWeight
			reasons = append(reasons, fmt.Sprintf("price inside bearish order block [%.2f, %.2f]", ob.Low, ob.High))
		}
		break
	}

	for _, gap := range snap.Gaps {
		if gap.Filled || !gap.Contains(price) {
			continue
		}
		if gap.Kind == models.BullishFVG {
			score += gapWeight
			reasons = append(reasons, fmt.Sprintf("price inside bullish fair value gap [%.2f, %.2f]", gap.Low, gap.High))
		} else {
			score -= gapWeight
			reasons = append(reasons, fmt.Sprintf("price inside bearish fair value gap [%.2f, %.2f]", gap.Low, gap.High))
		}
		break
	}

	switch {
	case snap.RSI < 30:
		score += rsiWeight
		reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f)", snap.RSI))
	case snap.RSI > 70:
		score -= rsiWeight
		reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f)", snap.RSI))
	}

	switch {
	case snap.MACDHist > 0:
		score += macdWeight
		reasons = append(reasons, "MACD histogram positive")
	case snap.MACDHist < 0:
		score -= macdWeight
		reasons = append(reasons, "MACD histogram negative")
	}

	return score, reasons
}

// signalID derives a stable UUID from the symbol and bar timestamp so reruns
// over the same data never duplicate rows.
func signalID(symbol string, snap *models.IndicatorSnapshot) string {
	name := fmt.Sprintf("%s|%d", symbol, snap.Timestamp.Unix())
	return uuid.NewSHA1(signalNamespace, []byte(name)).String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
