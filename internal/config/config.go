// Package config loads the scanner configuration from environment
// variables, with a .env file honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the full runtime configuration surface.
type Config struct {
	// universe
	QuoteAsset     string
	MinQuoteVolume float64
	JunkSubstrings []string // nil keeps the built-in blocklist

	// market data
	Interval       string // candle timeframe, e.g. "5m"
	KlineLimit     int
	DepthLimit     int // levels fetched per book side
	RequestTimeout time.Duration

	// loop scheduling
	ScanInterval    time.Duration // trend/oversold/bottom loop
	HeatmapInterval time.Duration // book cluster loop
	UniverseRetry   time.Duration // backoff after a universe-level failure

	// cooldowns
	Cooldown        time.Duration
	HeatmapCooldown time.Duration

	// bottom detector
	DropLookback        int
	DropMinPct          float64
	SidewaysLookback    int
	SidewaysMaxRangePct float64
	TurnMinGreen        int
	VolMAWindow         int
	VolMinFactor        float64

	// oversold detector
	RSIPeriod int
	RSIMax    float64
	BBPeriod  int
	BBStdDev  float64

	// higher-timeframe oversold loops
	OversoldKlineLimit int
	RSIMax1h           float64
	RSIMax4h           float64
	RSIMax1d           float64
	Cooldown1h         time.Duration
	Cooldown4h         time.Duration
	Cooldown1d         time.Duration

	// trend detector
	TrendMinScore     float64
	TrendBookRatioMin float64

	// cluster detector
	ClusterDepthLevels    int
	ClusterMaxDistancePct float64
	ClusterMinNotional    float64
	ClusterDominanceRatio float64
	ClusterDoubleConfirm  bool

	// delivery and persistence
	TelegramToken  string
	TelegramChatID int64
	DatabaseURL    string

	// process
	HTTPAddr string
	LogLevel string
}

// Load reads the environment into a Config, applying defaults for every
// unset key.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		QuoteAsset:     getEnvWithDefault("QUOTE_ASSET", "USDT"),
		MinQuoteVolume: getEnvFloatWithDefault("MIN_QUOTE_VOLUME", 2_000_000),
		JunkSubstrings: getEnvListWithDefault("JUNK_SUBSTRINGS", nil),

		Interval:       getEnvWithDefault("INTERVAL", "5m"),
		KlineLimit:     getEnvIntWithDefault("KLINES_LIMIT", 120),
		DepthLimit:     getEnvIntWithDefault("DEPTH_LIMIT", 50),
		RequestTimeout: getEnvDurationWithDefault("REQUEST_TIMEOUT", 15*time.Second),

		ScanInterval:    getEnvDurationWithDefault("SCAN_INTERVAL", 30*time.Second),
		HeatmapInterval: getEnvDurationWithDefault("HEATMAP_INTERVAL", 20*time.Second),
		UniverseRetry:   getEnvDurationWithDefault("UNIVERSE_RETRY", 5*time.Second),

		Cooldown:        getEnvDurationWithDefault("ALERT_COOLDOWN", 30*time.Minute),
		HeatmapCooldown: getEnvDurationWithDefault("HEATMAP_COOLDOWN", 15*time.Minute),

		DropLookback:        getEnvIntWithDefault("DROP_LOOKBACK", 48),
		DropMinPct:          getEnvFloatWithDefault("DROP_MIN_PCT", 7.5),
		SidewaysLookback:    getEnvIntWithDefault("SIDEWAYS_LOOKBACK", 12),
		SidewaysMaxRangePct: getEnvFloatWithDefault("SIDEWAYS_MAX_RANGE_PCT", 1.2),
		TurnMinGreen:        getEnvIntWithDefault("TURN_MIN_GREEN_CANDLES", 2),
		VolMAWindow:         getEnvIntWithDefault("VOL_MA_WINDOW", 20),
		VolMinFactor:        getEnvFloatWithDefault("VOL_MIN_FACTOR", 1.2),

		RSIPeriod: getEnvIntWithDefault("RSI_PERIOD", 14),
		RSIMax:    getEnvFloatWithDefault("RSI_MAX", 35),
		BBPeriod:  getEnvIntWithDefault("BB_PERIOD", 20),
		BBStdDev:  getEnvFloatWithDefault("BB_STD_DEV", 2.0),

		OversoldKlineLimit: getEnvIntWithDefault("OVERSOLD_KLINES_LIMIT", 50),
		RSIMax1h:           getEnvFloatWithDefault("RSI_MAX_1H", 35),
		RSIMax4h:           getEnvFloatWithDefault("RSI_MAX_4H", 38),
		RSIMax1d:           getEnvFloatWithDefault("RSI_MAX_1D", 38),
		Cooldown1h:         getEnvDurationWithDefault("COOLDOWN_1H", 30*time.Minute),
		Cooldown4h:         getEnvDurationWithDefault("COOLDOWN_4H", 2*time.Hour),
		Cooldown1d:         getEnvDurationWithDefault("COOLDOWN_1D", 12*time.Hour),

		TrendMinScore:     getEnvFloatWithDefault("TREND_MIN_SCORE", 50),
		TrendBookRatioMin: getEnvFloatWithDefault("TREND_BOOK_RATIO_MIN", 1.5),

		ClusterDepthLevels:    getEnvIntWithDefault("CLUSTER_DEPTH_LEVELS", 50),
		ClusterMaxDistancePct: getEnvFloatWithDefault("CLUSTER_MAX_DISTANCE_PCT", 1.0),
		ClusterMinNotional:    getEnvFloatWithDefault("CLUSTER_MIN_NOTIONAL", 50_000),
		ClusterDominanceRatio: getEnvFloatWithDefault("CLUSTER_DOMINANCE_RATIO", 1.3),
		ClusterDoubleConfirm:  getEnvBoolWithDefault("CLUSTER_DOUBLE_CONFIRM", true),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: getEnvInt64WithDefault("CHAT_ID", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		HTTPAddr: ":" + getEnvWithDefault("PORT", "10000"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
	}
	return cfg
}

// Validate rejects configurations the scanner cannot run with. These are
// the only errors that terminate the process.
func (c *Config) Validate() error {
	if c.ScanInterval <= 0 || c.HeatmapInterval <= 0 {
		return fmt.Errorf("scan intervals must be positive")
	}
	if c.Cooldown <= 0 || c.HeatmapCooldown <= 0 {
		return fmt.Errorf("cooldowns must be positive")
	}
	if c.Cooldown1h <= 0 || c.Cooldown4h <= 0 || c.Cooldown1d <= 0 {
		return fmt.Errorf("timeframe cooldowns must be positive")
	}
	if c.OversoldKlineLimit < c.BBPeriod+1 || c.OversoldKlineLimit < c.RSIPeriod+2 {
		return fmt.Errorf("OVERSOLD_KLINES_LIMIT %d too small for the oscillator windows", c.OversoldKlineLimit)
	}
	if c.KlineLimit < c.DropLookback+c.TurnMinGreen+1 {
		return fmt.Errorf("KLINES_LIMIT %d too small for DROP_LOOKBACK %d", c.KlineLimit, c.DropLookback)
	}
	if c.DropLookback <= 0 || c.SidewaysLookback <= 0 || c.VolMAWindow <= 0 {
		return fmt.Errorf("detector lookback windows must be positive")
	}
	if c.ClusterDominanceRatio < 1 {
		return fmt.Errorf("CLUSTER_DOMINANCE_RATIO must be >= 1, got %v", c.ClusterDominanceRatio)
	}
	if c.RSIPeriod <= 0 || c.BBPeriod <= 0 {
		return fmt.Errorf("oscillator periods must be positive")
	}
	return nil
}

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

// getEnvListWithDefault parses a comma-separated list, trimming and
// upper-casing each entry.
func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvDurationWithDefault accepts either a Go duration string ("30s") or
// a bare number of seconds, which is what the deployment configs carry.
func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
