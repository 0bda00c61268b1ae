package indicators

import "github.com/ictoracle/trading/models"

// MACD returns the MACD line, signal line, and histogram.
func MACD(candles []models.Candle, fastPeriod, slowPeriod, signalPeriod int) (float64, float64, float64) {
	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	if len(closes) < slowPeriod+signalPeriod {
		return 0, 0, 0
	}

	macdLine := emaFromPrices(closes, fastPeriod) - emaFromPrices(closes, slowPeriod)

	// Signal line is the EMA of the MACD series over time.
	macdHistory := make([]float64, 0, len(closes)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(closes); i++ {
		window := closes[:i+1]
		macdHistory = append(macdHistory, emaFromPrices(window, fastPeriod)-emaFromPrices(window, slowPeriod))
	}

	signalLine := 0.0
	if len(macdHistory) >= signalPeriod {
		signalLine = emaFromPrices(macdHistory, signalPeriod)
	}

	return macdLine, signalLine, macdLine - signalLine
}
