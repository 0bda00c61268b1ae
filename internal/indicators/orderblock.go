package indicators

import (
	"math"

	"github.com/ictoracle/trading/models"
)

const (
	// obLookback bounds the search for the opposing candle before a
	// displacement move.
	obLookback = 10
	// obKeep caps how many blocks a snapshot carries.
	obKeep = 5
	// obVolumePeriod is the volume SMA window for spike confirmation.
	obVolumePeriod = 20
)

// OrderBlocks detects order blocks: the last opposing candle before a
// displacement move whose body dominates its range. When volume data exists,
// the displacement candle must also trade at least volumeRatio times its
// 20-bar average volume. Returns at most the five most recent blocks.
func OrderBlocks(candles []models.Candle, displacementThreshold, volumeRatio float64) []models.OrderBlock {
	var blocks []models.OrderBlock

	for i := 1; i < len(candles); i++ {
		c := candles[i]
		rng := c.High - c.Low
		if rng <= 0 {
			continue
		}
		body := math.Abs(c.Close - c.Open)
		if body/rng <= displacementThreshold {
			continue
		}
		if !volumeConfirmed(candles, i, volumeRatio) {
			continue
		}

		if c.Close > c.Open {
			// Bullish displacement: block is the last down candle before it.
			if ob, ok := lastOpposing(candles, i, false); ok {
				blocks = append(blocks, models.OrderBlock{
					Kind:      models.BullishOB,
					High:      ob.High,
					Low:       ob.Low,
					Timestamp: ob.Timestamp,
				})
			}
		} else {
			if ob, ok := lastOpposing(candles, i, true); ok {
				blocks = append(blocks, models.OrderBlock{
					Kind:      models.BearishOB,
					High:      ob.High,
					Low:       ob.Low,
					Timestamp: ob.Timestamp,
				})
			}
		}
	}

	if len(blocks) > obKeep {
		blocks = blocks[len(blocks)-obKeep:]
	}
	return blocks
}

// lastOpposing finds the most recent candle before idx in the opposite
// direction: bullish=true looks for an up candle, false for a down candle.
func lastOpposing(candles []models.Candle, idx int, bullish bool) (models.Candle, bool) {
	start := idx - obLookback
	if start < 0 {
		start = 0
	}
	for i := idx - 1; i >= start; i-- {
		c := candles[i]
		if bullish && c.Close > c.Open {
			return c, true
		}
		if !bullish && c.Close < c.Open {
			return c, true
		}
	}
	return models.Candle{}, false
}

// volumeConfirmed passes when the bar's volume spikes above its trailing
// average, or unconditionally when the feed carries no volume data.
func volumeConfirmed(candles []models.Candle, idx int, volumeRatio float64) bool {
	if candles[idx].Volume <= 0 || volumeRatio <= 0 {
		return true
	}

	start := idx - obVolumePeriod
	if start < 0 {
		start = 0
	}
	var sum, n float64
	for i := start; i < idx; i++ {
		if candles[i].Volume > 0 {
			sum += float64(candles[i].Volume)
			n++
		}
	}
	if n == 0 {
		return true
	}
	avg := sum / n
	return float64(candles[idx].Volume) >= volumeRatio*avg
}
