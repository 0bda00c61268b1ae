package indicators

import "github.com/ictoracle/trading/models"

// swingPoint is a local extreme confirmed by its flanking bars.
type swingPoint struct {
	index int
	price float64
}

// trendThreshold is the net percent move that classifies a window with too
// few swing points as trending rather than ranging.
const trendThreshold = 1.0

// Structure classifies market structure from the window's swing points:
// higher highs and higher lows are BULLISH, lower highs and lower lows are
// BEARISH, mixed swings are RANGING. A window without two swing highs and two
// swing lows (e.g. a straight one-way move never prints a local extreme)
// falls back to the net percent change over the window.
func Structure(candles []models.Candle, swingWindow int) models.MarketStructure {
	flank := swingWindow / 2
	if flank < 1 {
		flank = 1
	}
	if len(candles) < 2*flank+1 {
		return models.StructureRanging
	}

	var highs, lows []swingPoint
	for i := flank; i < len(candles)-flank; i++ {
		if isSwingHigh(candles, i, flank) {
			highs = append(highs, swingPoint{i, candles[i].High})
		}
		if isSwingLow(candles, i, flank) {
			lows = append(lows, swingPoint{i, candles[i].Low})
		}
	}

	if len(highs) < 2 || len(lows) < 2 {
		return trendFallback(candles)
	}

	higherHighs := highs[len(highs)-1].price > highs[len(highs)-2].price
	higherLows := lows[len(lows)-1].price > lows[len(lows)-2].price

	switch {
	case higherHighs && higherLows:
		return models.StructureBullish
	case !higherHighs && !higherLows:
		return models.StructureBearish
	default:
		return models.StructureRanging
	}
}

func trendFallback(candles []models.Candle) models.MarketStructure {
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	if first == 0 {
		return models.StructureRanging
	}
	changePct := (last - first) / first * 100
	switch {
	case changePct > trendThreshold:
		return models.StructureBullish
	case changePct < -trendThreshold:
		return models.StructureBearish
	default:
		return models.StructureRanging
	}
}

func isSwingHigh(candles []models.Candle, i, flank int) bool {
	for j := i - flank; j <= i+flank; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= candles[i].High {
			return false
		}
	}
	return true
}

func isSwingLow(candles []models.Candle, i, flank int) bool {
	for j := i - flank; j <= i+flank; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= candles[i].Low {
			return false
		}
	}
	return true
}
