package models

import "time"

// CandlesPerDay returns how many bars one calendar day holds at the given
// interval. Unknown intervals fall back to hourly.
func CandlesPerDay(interval string) int {
	switch interval {
	case "1min":
		return 24 * 60
	case "5min":
		return 24 * 12
	case "15min":
		return 24 * 4
	case "30min":
		return 24 * 2
	case "45min":
		return 24 * 60 / 45
	case "1h":
		return 24
	case "2h":
		return 12
	case "4h":
		return 6
	case "8h":
		return 3
	case "1day":
		return 1
	default:
		return 24
	}
}

// IntervalDuration converts an interval label to its bar duration.
func IntervalDuration(interval string) time.Duration {
	return 24 * time.Hour / time.Duration(CandlesPerDay(interval))
}

// CandlesForBacktest returns the bar count needed to cover the given number
// of days, with a 10% buffer for feed gaps.
func CandlesForBacktest(interval string, days int) int {
	return int(float64(CandlesPerDay(interval)) * float64(days) * 1.1)
}
