package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/CryptoForecaster/models"
)

// Config holds all application configuration
type Config struct {
	// Data acquisition
	CoinGeckoBaseURL string
	Coins            []string
	HistoryDays      int
	RequestTimeout   int // seconds
	RequestsPerSec   int

	// Forecasting
	Horizons     []int // days ahead
	MinTrainRows int
	TrainFrac    float64
	ForestTrees  int
	BoostRounds  int
	LearningRate float64
	Seed         int64

	// Indicators
	Indicators models.IndicatorConfig

	// Storage
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	LogLevel string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Config{
		CoinGeckoBaseURL: getEnvWithDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		Coins:            getEnvListWithDefault("COINS", []string{"bitcoin", "ethereum", "binancecoin", "cardano", "solana"}),
		HistoryDays:      getEnvIntWithDefault("HISTORY_DAYS", 365),
		RequestTimeout:   getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
		RequestsPerSec:   getEnvIntWithDefault("REQUESTS_PER_SEC", 2),

		Horizons:     getEnvIntListWithDefault("HORIZONS", []int{1, 7}),
		MinTrainRows: getEnvIntWithDefault("MIN_TRAIN_ROWS", 60),
		TrainFrac:    getEnvFloatWithDefault("TRAIN_FRAC", 0.8),
		ForestTrees:  getEnvIntWithDefault("FOREST_TREES", 100),
		BoostRounds:  getEnvIntWithDefault("BOOST_ROUNDS", 100),
		LearningRate: getEnvFloatWithDefault("LEARNING_RATE", 0.1),
		Seed:         int64(getEnvIntWithDefault("SEED", 42)),

		Indicators: models.DefaultIndicatorConfig(),

		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "crypto_user"),
		DBPassword: getEnvWithDefault("DB_PASSWORD", ""),
		DBName:     getEnvWithDefault("DB_NAME", "crypto_data"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
	}

	cfg.Indicators.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", cfg.Indicators.RSIPeriod)
	cfg.Indicators.BBPeriod = getEnvIntWithDefault("BB_PERIOD", cfg.Indicators.BBPeriod)
	cfg.Indicators.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", cfg.Indicators.BBStdDev)
	cfg.Indicators.EMAFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", cfg.Indicators.EMAFastPeriod)
	cfg.Indicators.EMASlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", cfg.Indicators.EMASlowPeriod)
	cfg.Indicators.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", cfg.Indicators.MACDSignalPeriod)
	cfg.Indicators.StochPeriod = getEnvIntWithDefault("STOCH_PERIOD", cfg.Indicators.StochPeriod)
	cfg.Indicators.WilliamsRPeriod = getEnvIntWithDefault("WILLIAMS_R_PERIOD", cfg.Indicators.WilliamsRPeriod)
	cfg.Indicators.LevelWindow = getEnvIntWithDefault("LEVEL_WINDOW", cfg.Indicators.LevelWindow)
	cfg.Indicators.LevelTolerance = getEnvFloatWithDefault("LEVEL_TOLERANCE", cfg.Indicators.LevelTolerance)

	return &cfg, nil
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

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getEnvIntListWithDefault(key string, defaultValue []int) []int {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]int, 0, len(parts))
		for _, p := range parts {
			if intValue, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
				out = append(out, intValue)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
