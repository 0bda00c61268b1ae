package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ictoracle/trading/models"
)

// Config holds all application configuration. Values come from environment
// variables with a .env file as fallback; nothing is patched at runtime.
type Config struct {
	TwelveAPIKey string
	Symbol       string
	Interval     string
	CandleCount  int

	RSIPeriod        int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
	BBPeriod         int
	BBStdDev         float64
	EMAFastPeriod    int
	EMASlowPeriod    int
	ATRPeriod        int
	StochKPeriod     int
	StochDPeriod     int

	// ICT pattern detection knobs. Heuristic thresholds, deliberately
	// configuration rather than hard-coded contract.
	SwingWindow           int
	DisplacementThreshold float64
	OBVolumeRatio         float64

	ConfidenceThreshold int
	StopLossATR         float64
	TakeProfitATR       float64

	BacktestEnabled bool
	BacktestDays    int
	SignalsPerDay   int

	CacheDuration int // seconds
	APITimeout    int // seconds

	DatabasePath string
	DatabaseURL  string // when set, Postgres is used instead of the SQLite file

	TelegramBotToken string
	TelegramChatID   int64

	LogLevel string
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		TwelveAPIKey: os.Getenv("TWELVE_API_KEY"),
		Symbol:       getEnvWithDefault("SYMBOL", "XAU/USD"),
		Interval:     getEnvWithDefault("INTERVAL", "1h"),
		CandleCount:  getEnvIntWithDefault("CANDLE_COUNT", 120),

		RSIPeriod:        getEnvIntWithDefault("RSI_PERIOD", 14),
		MACDFastPeriod:   getEnvIntWithDefault("MACD_FAST_PERIOD", 12),
		MACDSlowPeriod:   getEnvIntWithDefault("MACD_SLOW_PERIOD", 26),
		MACDSignalPeriod: getEnvIntWithDefault("MACD_SIGNAL_PERIOD", 9),
		BBPeriod:         getEnvIntWithDefault("BB_PERIOD", 20),
		BBStdDev:         getEnvFloatWithDefault("BB_STD_DEV", 2.0),
		EMAFastPeriod:    getEnvIntWithDefault("EMA_FAST_PERIOD", 12),
		EMASlowPeriod:    getEnvIntWithDefault("EMA_SLOW_PERIOD", 26),
		ATRPeriod:        getEnvIntWithDefault("ATR_PERIOD", 14),
		StochKPeriod:     getEnvIntWithDefault("STOCH_K_PERIOD", 14),
		StochDPeriod:     getEnvIntWithDefault("STOCH_D_PERIOD", 3),

		SwingWindow:           getEnvIntWithDefault("SWING_WINDOW", 10),
		DisplacementThreshold: getEnvFloatWithDefault("DISPLACEMENT_THRESHOLD", 0.70),
		OBVolumeRatio:         getEnvFloatWithDefault("OB_VOLUME_RATIO", 1.2),

		ConfidenceThreshold: getEnvIntWithDefault("AI_CONFIDENCE_THRESHOLD", 70),
		StopLossATR:         getEnvFloatWithDefault("STOP_LOSS_ATR", 1.5),
		TakeProfitATR:       getEnvFloatWithDefault("TAKE_PROFIT_ATR", 2.5),

		BacktestEnabled: getEnvBoolWithDefault("BACKTEST_ENABLED", true),
		BacktestDays:    getEnvIntWithDefault("BACKTEST_DAYS", 7),
		SignalsPerDay:   getEnvIntWithDefault("SIGNALS_PER_DAY", 10),

		CacheDuration: getEnvIntWithDefault("CACHE_DURATION", 300),
		APITimeout:    getEnvIntWithDefault("API_TIMEOUT", 30),

		DatabasePath: getEnvWithDefault("DATABASE_PATH", "data/ict_trading.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engines cannot work with.
func (c *Config) Validate() error {
	for name, v := range map[string]int{
		"RSI_PERIOD":         c.RSIPeriod,
		"MACD_FAST_PERIOD":   c.MACDFastPeriod,
		"MACD_SLOW_PERIOD":   c.MACDSlowPeriod,
		"MACD_SIGNAL_PERIOD": c.MACDSignalPeriod,
		"BB_PERIOD":          c.BBPeriod,
		"EMA_FAST_PERIOD":    c.EMAFastPeriod,
		"EMA_SLOW_PERIOD":    c.EMASlowPeriod,
		"ATR_PERIOD":         c.ATRPeriod,
		"STOCH_K_PERIOD":     c.StochKPeriod,
		"STOCH_D_PERIOD":     c.StochDPeriod,
		"SWING_WINDOW":       c.SwingWindow,
		"CANDLE_COUNT":       c.CandleCount,
		"BACKTEST_DAYS":      c.BacktestDays,
		"SIGNALS_PER_DAY":    c.SignalsPerDay,
	} {
		if v < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", models.ErrInvalidConfig, name, v)
		}
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("%w: AI_CONFIDENCE_THRESHOLD must be in [0,100], got %d",
			models.ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.DisplacementThreshold <= 0 || c.DisplacementThreshold > 1 {
		return fmt.Errorf("%w: DISPLACEMENT_THRESHOLD must be in (0,1], got %g",
			models.ErrInvalidConfig, c.DisplacementThreshold)
	}
	if c.StopLossATR <= 0 || c.TakeProfitATR <= 0 {
		return fmt.Errorf("%w: STOP_LOSS_ATR and TAKE_PROFIT_ATR must be positive",
			models.ErrInvalidConfig)
	}
	if c.APITimeout < 1 {
		return fmt.Errorf("%w: API_TIMEOUT must be at least 1s, got %d",
			models.ErrInvalidConfig, c.APITimeout)
	}
	if c.CacheDuration < 0 {
		return fmt.Errorf("%w: CACHE_DURATION must not be negative, got %d",
			models.ErrInvalidConfig, c.CacheDuration)
	}
	return nil
}

// MinWindow is the shortest candle window every indicator can be computed on.
func (c *Config) MinWindow() int {
	min := c.RSIPeriod + 1
	if n := 2*c.SwingWindow + 1; n > min {
		min = n
	}
	if c.BBPeriod > min {
		min = c.BBPeriod
	}
	if n := c.MACDSlowPeriod + c.MACDSignalPeriod; n > min {
		min = n
	}
	return min
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
