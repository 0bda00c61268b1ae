// Package indicators computes the technical indicator basket over a price
// window. Every function here is a pure function of its input candles; there
// is no hidden state, so identical windows always produce identical values.
package indicators

import (
	"fmt"

	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/models"
)

// ComputeSnapshot calculates the full indicator basket for one window.
// The window must hold at least cfg.MinWindow() candles.
func ComputeSnapshot(candles []models.Candle, cfg *config.Config) (*models.IndicatorSnapshot, error) {
	if min := cfg.MinWindow(); len(candles) < min {
		return nil, fmt.Errorf("%w: need %d candles, got %d", models.ErrInsufficientData, min, len(candles))
	}

	last := candles[len(candles)-1]

	macd, macdSignal, macdHist := MACD(candles, cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod)
	bbUpper, bbMiddle, bbLower := BollingerBands(candles, cfg.BBPeriod, cfg.BBStdDev)
	stochK, stochD := Stochastic(candles, cfg.StochKPeriod, cfg.StochDPeriod)

	blocks := OrderBlocks(candles, cfg.DisplacementThreshold, cfg.OBVolumeRatio)
	gaps := FairValueGaps(candles)

	snap := &models.IndicatorSnapshot{
		Timestamp:        last.Timestamp,
		RSI:              RSI(candles, cfg.RSIPeriod),
		MACD:             macd,
		MACDSignal:       macdSignal,
		MACDHist:         macdHist,
		EMAFast:          EMA(candles, cfg.EMAFastPeriod),
		EMASlow:          EMA(candles, cfg.EMASlowPeriod),
		SMA20:            SMA(candles, 20),
		SMA50:            SMA(candles, 50),
		BBUpper:          bbUpper,
		BBMiddle:         bbMiddle,
		BBLower:          bbLower,
		ATR:              ATR(candles, cfg.ATRPeriod),
		Stochastic:       stochK,
		StochasticSignal: stochD,
		VolumeRatio:      volumeRatioAt(candles),
		Structure:        Structure(candles, cfg.SwingWindow),
		OrderBlocks:      blocks,
		Gaps:             gaps,
		OrderBlockState:  orderBlockState(blocks, last.Close),
		GapState:         gapState(gaps),
	}
	return snap, nil
}

// volumeRatioAt relates the last bar's volume to its 20-bar average.
// Zero when the feed carries no volume data.
func volumeRatioAt(candles []models.Candle) float64 {
	last := candles[len(candles)-1]
	if last.Volume <= 0 {
		return 0
	}

	start := len(candles) - 1 - obVolumePeriod
	if start < 0 {
		start = 0
	}
	var sum, n float64
	for i := start; i < len(candles)-1; i++ {
		if candles[i].Volume > 0 {
			sum += float64(candles[i].Volume)
			n++
		}
	}
	if n == 0 || sum == 0 {
		return 0
	}
	return float64(last.Volume) / (sum / n)
}

func orderBlockState(blocks []models.OrderBlock, price float64) models.OrderBlockState {
	for _, ob := range blocks {
		if ob.Contains(price) {
			return models.OrderBlockConfirmed
		}
	}
	return models.OrderBlockNone
}

func gapState(gaps []models.FairValueGap) models.GapState {
	if len(gaps) == 0 {
		return models.GapNone
	}
	for _, g := range gaps {
		if !g.Filled {
			return models.GapActive
		}
	}
	return models.GapFilled
}
