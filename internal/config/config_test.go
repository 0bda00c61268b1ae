package config

import (
	"errors"
	"testing"

	"github.com/ictoracle/trading/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Symbol != "XAU/USD" {
		t.Errorf("Symbol = %q, want XAU/USD", cfg.Symbol)
	}
	if cfg.ConfidenceThreshold != 70 {
		t.Errorf("ConfidenceThreshold = %d, want 70", cfg.ConfidenceThreshold)
	}
	if cfg.BacktestDays != 7 {
		t.Errorf("BacktestDays = %d, want 7", cfg.BacktestDays)
	}
	if cfg.SignalsPerDay != 10 {
		t.Errorf("SignalsPerDay = %d, want 10", cfg.SignalsPerDay)
	}
	if cfg.CacheDuration != 300 {
		t.Errorf("CacheDuration = %d, want 300", cfg.CacheDuration)
	}
	if cfg.APITimeout != 30 {
		t.Errorf("APITimeout = %d, want 30", cfg.APITimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AI_CONFIDENCE_THRESHOLD", "85")
	t.Setenv("BACKTEST_DAYS", "14")
	t.Setenv("SIGNALS_PER_DAY", "5")
	t.Setenv("BACKTEST_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConfidenceThreshold != 85 {
		t.Errorf("ConfidenceThreshold = %d, want 85", cfg.ConfidenceThreshold)
	}
	if cfg.BacktestDays != 14 {
		t.Errorf("BacktestDays = %d, want 14", cfg.BacktestDays)
	}
	if cfg.SignalsPerDay != 5 {
		t.Errorf("SignalsPerDay = %d, want 5", cfg.SignalsPerDay)
	}
	if cfg.BacktestEnabled {
		t.Error("BacktestEnabled = true, want false")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative threshold", "AI_CONFIDENCE_THRESHOLD", "-1"},
		{"threshold above 100", "AI_CONFIDENCE_THRESHOLD", "101"},
		{"zero backtest days", "BACKTEST_DAYS", "0"},
		{"zero signals per day", "SIGNALS_PER_DAY", "0"},
		{"zero rsi period", "RSI_PERIOD", "0"},
		{"displacement above 1", "DISPLACEMENT_THRESHOLD", "1.5"},
		{"negative cache duration", "CACHE_DURATION", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() accepted %s=%s", tt.key, tt.value)
			}
			if !errors.Is(err, models.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestMinWindow(t *testing.T) {
	cfg := &Config{
		RSIPeriod:        14,
		SwingWindow:      10,
		BBPeriod:         20,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
	}
	// MACD slow+signal = 35 dominates the defaults.
	if got := cfg.MinWindow(); got != 35 {
		t.Errorf("MinWindow() = %d, want 35", got)
	}

	cfg.SwingWindow = 30
	if got := cfg.MinWindow(); got != 61 {
		t.Errorf("MinWindow() = %d, want 61", got)
	}
}
