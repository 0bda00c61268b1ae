package indicators

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ictoracle/trading/internal/config"
	"github.com/ictoracle/trading/models"
)

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func baseTime() time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name    string
		candles []models.Candle
		want    float64
	}{
		{
			name: "not enough data returns neutral",
			candles: generateTestCandles(5, func(i int) models.Candle {
				return models.Candle{Close: 100 + float64(i)}
			}),
			want: 50.0,
		},
		{
			name: "monotonic gains saturate at 100",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Close: 100 + float64(i)}
			}),
			want: 100.0,
		},
		{
			name: "monotonic losses saturate at 0",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Close: 200 - float64(i)}
			}),
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.candles, 14)
			if got != tt.want {
				t.Errorf("RSI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRSIBounds(t *testing.T) {
	// Mixed movement must stay inside [0,100].
	candles := generateTestCandles(50, func(i int) models.Candle {
		return models.Candle{Close: 100 + float64(i%7) - float64(i%3)*2}
	})
	got := RSI(candles, 14)
	if got < 0 || got > 100 {
		t.Errorf("RSI() = %v, out of [0,100]", got)
	}
}

func TestStructureFromSwings(t *testing.T) {
	// Explicit swing pattern with flank 1 (swing window 2): highs step up
	// 12 -> 14 -> 16 -> 18, interior lows step up 5 -> 6 -> 7.
	bullHighs := []float64{10, 12, 10, 14, 10, 16, 10, 18, 10}
	bullLows := []float64{6, 9, 5, 9, 6, 9, 7, 9, 6}

	bull := make([]models.Candle, len(bullHighs))
	bear := make([]models.Candle, len(bullHighs))
	for i := range bullHighs {
		bull[i] = models.Candle{High: bullHighs[i], Low: bullLows[i], Close: bullLows[i] + 1}
		// Mirror the pattern for the bearish case.
		j := len(bullHighs) - 1 - i
		bear[i] = models.Candle{High: bullHighs[j], Low: bullLows[j], Close: bullLows[j] + 1}
	}

	if got := Structure(bull, 2); got != models.StructureBullish {
		t.Errorf("Structure(bull) = %v, want BULLISH", got)
	}
	if got := Structure(bear, 2); got != models.StructureBearish {
		t.Errorf("Structure(bear) = %v, want BEARISH", got)
	}
}

func TestStructureTrendFallback(t *testing.T) {
	tests := []struct {
		name    string
		candles []models.Candle
		want    models.MarketStructure
	}{
		{
			name: "monotonic rise has no swings but is bullish",
			candles: generateTestCandles(60, func(i int) models.Candle {
				p := 100 + float64(i)*0.5
				return models.Candle{Open: p, High: p + 1, Low: p - 1, Close: p}
			}),
			want: models.StructureBullish,
		},
		{
			name: "monotonic fall is bearish",
			candles: generateTestCandles(60, func(i int) models.Candle {
				p := 200 - float64(i)*0.5
				return models.Candle{Open: p, High: p + 1, Low: p - 1, Close: p}
			}),
			want: models.StructureBearish,
		},
		{
			name: "flat series is ranging",
			candles: generateTestCandles(60, func(i int) models.Candle {
				return models.Candle{Open: 100, High: 101, Low: 99, Close: 100}
			}),
			want: models.StructureRanging,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Structure(tt.candles, 10); got != tt.want {
				t.Errorf("Structure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderBlocks(t *testing.T) {
	ts := baseTime()

	// Down candle followed by a bullish displacement move.
	bullish := []models.Candle{
		{Timestamp: ts, Open: 105, High: 106, Low: 99, Close: 100},
		{Timestamp: ts.Add(time.Hour), Open: 100, High: 111, Low: 100, Close: 110},
	}
	blocks := OrderBlocks(bullish, 0.7, 1.2)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Kind != models.BullishOB {
		t.Errorf("kind = %v, want BULLISH_OB", blocks[0].Kind)
	}
	if blocks[0].High != 106 || blocks[0].Low != 99 {
		t.Errorf("block range = [%v,%v], want [99,106]", blocks[0].Low, blocks[0].High)
	}

	// Up candle followed by a bearish displacement move.
	bearish := []models.Candle{
		{Timestamp: ts, Open: 100, High: 106, Low: 99, Close: 105},
		{Timestamp: ts.Add(time.Hour), Open: 105, High: 105.5, Low: 94.5, Close: 95},
	}
	blocks = OrderBlocks(bearish, 0.7, 1.2)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Kind != models.BearishOB {
		t.Errorf("kind = %v, want BEARISH_OB", blocks[0].Kind)
	}

	// Weak candle below the displacement threshold yields nothing.
	weak := []models.Candle{
		{Timestamp: ts, Open: 105, High: 106, Low: 99, Close: 100},
		{Timestamp: ts.Add(time.Hour), Open: 100, High: 110, Low: 96, Close: 104},
	}
	if blocks = OrderBlocks(weak, 0.7, 1.2); len(blocks) != 0 {
		t.Errorf("got %d blocks for weak move, want 0", len(blocks))
	}
}

func TestFairValueGaps(t *testing.T) {
	ts := baseTime()
	hour := func(i int) time.Time { return ts.Add(time.Duration(i) * time.Hour) }

	t.Run("bullish gap stays active", func(t *testing.T) {
		candles := []models.Candle{
			{Timestamp: hour(0), Open: 100, High: 102, Low: 100, Close: 101},
			{Timestamp: hour(1), Open: 102, High: 106, Low: 102, Close: 105},
			{Timestamp: hour(2), Open: 105, High: 108, Low: 105, Close: 107},
			{Timestamp: hour(3), Open: 107, High: 109, Low: 106, Close: 108},
		}
		gaps := FairValueGaps(candles)
		if len(gaps) != 1 {
			t.Fatalf("got %d gaps, want 1", len(gaps))
		}
		g := gaps[0]
		if g.Kind != models.BullishFVG {
			t.Errorf("kind = %v, want BULLISH_FVG", g.Kind)
		}
		if g.Low != 102 || g.High != 105 {
			t.Errorf("gap range = [%v,%v], want [102,105]", g.Low, g.High)
		}
		if g.Filled {
			t.Error("gap marked filled without a retrace")
		}
	})

	t.Run("bullish gap filled by retrace", func(t *testing.T) {
		candles := []models.Candle{
			{Timestamp: hour(0), Open: 100, High: 102, Low: 100, Close: 101},
			{Timestamp: hour(1), Open: 102, High: 106, Low: 102, Close: 105},
			{Timestamp: hour(2), Open: 105, High: 108, Low: 105, Close: 107},
			{Timestamp: hour(3), Open: 107, High: 107, Low: 101, Close: 102},
		}
		gaps := FairValueGaps(candles)
		if len(gaps) != 1 {
			t.Fatalf("got %d gaps, want 1", len(gaps))
		}
		if !gaps[0].Filled {
			t.Error("retrace through the gap should mark it filled")
		}
	})

	t.Run("bearish gap", func(t *testing.T) {
		candles := []models.Candle{
			{Timestamp: hour(0), Open: 108, High: 109, Low: 106, Close: 107},
			{Timestamp: hour(1), Open: 106, High: 106, Low: 101, Close: 102},
			{Timestamp: hour(2), Open: 102, High: 103, Low: 100, Close: 101},
		}
		gaps := FairValueGaps(candles)
		if len(gaps) != 1 {
			t.Fatalf("got %d gaps, want 1", len(gaps))
		}
		g := gaps[0]
		if g.Kind != models.BearishFVG {
			t.Errorf("kind = %v, want BEARISH_FVG", g.Kind)
		}
		if g.Low != 103 || g.High != 106 {
			t.Errorf("gap range = [%v,%v], want [103,106]", g.Low, g.High)
		}
	})

	t.Run("no gap in overlapping candles", func(t *testing.T) {
		candles := generateTestCandles(10, func(i int) models.Candle {
			return models.Candle{High: 105, Low: 95, Close: 100}
		})
		if gaps := FairValueGaps(candles); len(gaps) != 0 {
			t.Errorf("got %d gaps in overlapping series, want 0", len(gaps))
		}
	})
}

func testConfig() *config.Config {
	return &config.Config{
		RSIPeriod:             14,
		MACDFastPeriod:        12,
		MACDSlowPeriod:        26,
		MACDSignalPeriod:      9,
		BBPeriod:              20,
		BBStdDev:              2.0,
		EMAFastPeriod:         12,
		EMASlowPeriod:         26,
		ATRPeriod:             14,
		StochKPeriod:          14,
		StochDPeriod:          3,
		SwingWindow:           10,
		DisplacementThreshold: 0.70,
		OBVolumeRatio:         1.2,
	}
}

// deterministic but non-trivial price path
func syntheticCandles(n int) []models.Candle {
	ts := baseTime()
	return generateTestCandles(n, func(i int) models.Candle {
		p := 3280 + float64(i%13)*3 - float64(i%7)*2 + float64(i)*0.2
		return models.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Open:      p - 1,
			High:      p + 3,
			Low:       p - 3,
			Close:     p,
			Volume:    int64(1000 + (i%5)*200),
		}
	})
}

func TestComputeSnapshotDeterministic(t *testing.T) {
	cfg := testConfig()
	candles := syntheticCandles(80)

	first, err := ComputeSnapshot(candles, cfg)
	if err != nil {
		t.Fatalf("ComputeSnapshot() error: %v", err)
	}
	second, err := ComputeSnapshot(candles, cfg)
	if err != nil {
		t.Fatalf("ComputeSnapshot() error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical windows produced different snapshots")
	}

	if first.RSI < 0 || first.RSI > 100 {
		t.Errorf("RSI = %v, out of [0,100]", first.RSI)
	}
	if first.ATR <= 0 {
		t.Errorf("ATR = %v, want > 0 for a moving series", first.ATR)
	}
	if first.Timestamp != candles[len(candles)-1].Timestamp {
		t.Error("snapshot timestamp should match the last candle")
	}
}

func TestComputeSnapshotInsufficientData(t *testing.T) {
	cfg := testConfig()
	_, err := ComputeSnapshot(syntheticCandles(10), cfg)
	if err == nil {
		t.Fatal("expected error for short window")
	}
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("error = %v, want ErrInsufficientData", err)
	}
}

func TestComputeSnapshotNoLookahead(t *testing.T) {
	cfg := testConfig()
	candles := syntheticCandles(120)

	// Once from a prefix of the longer history, once from a standalone copy
	// that has never seen the later bars.
	asOf, err := ComputeSnapshot(candles[:80], cfg)
	if err != nil {
		t.Fatalf("ComputeSnapshot() error: %v", err)
	}
	standalone := append([]models.Candle(nil), candles[:80]...)
	again, err := ComputeSnapshot(standalone, cfg)
	if err != nil {
		t.Fatalf("ComputeSnapshot() error: %v", err)
	}

	// Bars after the cutoff must not influence the snapshot at the cutoff.
	if !reflect.DeepEqual(asOf, again) {
		t.Error("bars beyond the cutoff leaked into the snapshot")
	}
}
