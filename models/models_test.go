package models

import (
	"testing"
	"time"
)

func TestQualityFor(t *testing.T) {
	tests := []struct {
		confidence int
		want       Quality
	}{
		{95, QualityExcellent},
		{80, QualityExcellent},
		{79, QualityGood},
		{60, QualityGood},
		{59, QualityFair},
		{0, QualityFair},
	}
	for _, tt := range tests {
		if got := QualityFor(tt.confidence); got != tt.want {
			t.Errorf("QualityFor(%d) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestCandlesPerDay(t *testing.T) {
	tests := []struct {
		interval string
		want     int
	}{
		{"1min", 1440},
		{"15min", 96},
		{"1h", 24},
		{"4h", 6},
		{"1day", 1},
		{"bogus", 24},
	}
	for _, tt := range tests {
		if got := CandlesPerDay(tt.interval); got != tt.want {
			t.Errorf("CandlesPerDay(%q) = %d, want %d", tt.interval, got, tt.want)
		}
	}
}

func TestIntervalDuration(t *testing.T) {
	if got := IntervalDuration("1h"); got != time.Hour {
		t.Errorf("IntervalDuration(1h) = %v, want 1h", got)
	}
	if got := IntervalDuration("1day"); got != 24*time.Hour {
		t.Errorf("IntervalDuration(1day) = %v, want 24h", got)
	}
}

func TestCandlesForBacktest(t *testing.T) {
	// 7 days of hourly bars plus the 10% feed-gap buffer.
	if got := CandlesForBacktest("1h", 7); got != 184 {
		t.Errorf("CandlesForBacktest(1h, 7) = %d, want 184", got)
	}
}

func TestOrderBlockContains(t *testing.T) {
	ob := OrderBlock{Low: 99, High: 101}
	for price, want := range map[float64]bool{
		100: true, 99: true, 101: true, 98.9: false, 101.1: false,
	} {
		if got := ob.Contains(price); got != want {
			t.Errorf("Contains(%v) = %v, want %v", price, got, want)
		}
	}
}

func TestBacktestRunResolved(t *testing.T) {
	run := BacktestRun{Wins: 3, Losses: 2, Unresolved: 4, Skipped: 1}
	if got := run.Resolved(); got != 5 {
		t.Errorf("Resolved() = %d, want 5", got)
	}
}
