package indicators

import "github.com/ictoracle/trading/models"

// fvgKeep caps how many gaps a snapshot carries.
const fvgKeep = 3

// FairValueGaps detects three-candle fair value gaps: a bullish gap where the
// first candle's high never overlaps the third candle's low, a bearish gap in
// the mirror case. A gap is marked filled once a later bar trades back
// through its far edge. Returns at most the three most recent gaps.
func FairValueGaps(candles []models.Candle) []models.FairValueGap {
	if len(candles) < 3 {
		return nil
	}

	var gaps []models.FairValueGap
	for i := 1; i < len(candles)-1; i++ {
		prev, next := candles[i-1], candles[i+1]

		if prev.High < next.Low {
			gap := models.FairValueGap{
				Kind:      models.BullishFVG,
				High:      next.Low,
				Low:       prev.High,
				Timestamp: candles[i].Timestamp,
			}
			// Filled when price later retraces below the gap's lower edge.
			for j := i + 2; j < len(candles); j++ {
				if candles[j].Low <= gap.Low {
					gap.Filled = true
					break
				}
			}
			gaps = append(gaps, gap)
		} else if prev.Low > next.High {
			gap := models.FairValueGap{
				Kind:      models.BearishFVG,
				High:      prev.Low,
				Low:       next.High,
				Timestamp: candles[i].Timestamp,
			}
			for j := i + 2; j < len(candles); j++ {
				if candles[j].High >= gap.High {
					gap.Filled = true
					break
				}
			}
			gaps = append(gaps, gap)
		}
	}

	if len(gaps) > fvgKeep {
		gaps = gaps[len(gaps)-fvgKeep:]
	}
	return gaps
}
