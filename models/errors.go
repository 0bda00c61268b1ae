package models

import "errors"

// Failure taxonomy shared by every component. Callers match with errors.Is;
// producers wrap with fmt.Errorf("...: %w", Err...).
var (
	// ErrDataUnavailable means the upstream price feed is unreachable or
	// returned an empty payload. No stale or fabricated data is substituted.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientData means the price window is too short for the
	// requested computation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInsufficientHistory means the historical window does not cover the
	// requested backtest period. The run aborts rather than silently
	// shortening.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrStorage wraps persistence read/write failures.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidConfig marks a missing or out-of-range configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")
)
