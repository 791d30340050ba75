package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Predictor tuning. These encode empirical beliefs about the queue and
	// are expected to be recalibrated without code changes.
	LetterWeight      float64 // share of intra-month order explained by the letter
	DayWeight         float64 // share explained by day of month
	UpperBoundMargin  float64 // pessimistic multiplier on remaining days
	DefaultWeeklyRate float64 // cases/week when throughput data is too sparse
	RateWindowWeeks   int     // complete weeks averaged for the throughput rate
	MinRateSamples    int     // minimum complete weeks before trusting the average
	ConfidenceLevel   float64 // reported as-is, not fitted

	// Percentile fallbacks used when the aggregate store has no snapshot
	DefaultP30Days int
	DefaultP50Days int
	DefaultP80Days int

	// Rate limiting for the prediction endpoint
	PredictRatePerMin int
	PredictBurst      int

	// Staleness monitoring
	StalenessCheckInterval time.Duration
	StalenessThreshold     time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "https://permupdate.com,https://www.permupdate.com"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if config.LetterWeight, err = getEnvFloat("LETTER_WEIGHT", 0.8); err != nil {
		return nil, err
	}
	if config.DayWeight, err = getEnvFloat("DAY_WEIGHT", 0.2); err != nil {
		return nil, err
	}
	if config.UpperBoundMargin, err = getEnvFloat("UPPER_BOUND_MARGIN", 1.15); err != nil {
		return nil, err
	}
	if config.DefaultWeeklyRate, err = getEnvFloat("DEFAULT_WEEKLY_RATE", 2900); err != nil {
		return nil, err
	}
	if config.RateWindowWeeks, err = getEnvInt("RATE_WINDOW_WEEKS", 4); err != nil {
		return nil, err
	}
	if config.MinRateSamples, err = getEnvInt("MIN_RATE_SAMPLES", 3); err != nil {
		return nil, err
	}
	if config.ConfidenceLevel, err = getEnvFloat("CONFIDENCE_LEVEL", 0.8); err != nil {
		return nil, err
	}
	if config.DefaultP30Days, err = getEnvInt("DEFAULT_P30_DAYS", 75); err != nil {
		return nil, err
	}
	if config.DefaultP50Days, err = getEnvInt("DEFAULT_P50_DAYS", 150); err != nil {
		return nil, err
	}
	if config.DefaultP80Days, err = getEnvInt("DEFAULT_P80_DAYS", 300); err != nil {
		return nil, err
	}
	if config.PredictRatePerMin, err = getEnvInt("PREDICT_RATE_PER_MIN", 10); err != nil {
		return nil, err
	}
	if config.PredictBurst, err = getEnvInt("PREDICT_BURST", 5); err != nil {
		return nil, err
	}

	stalenessCheck, err := getEnvInt("STALENESS_CHECK_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	config.StalenessCheckInterval = time.Duration(stalenessCheck) * time.Minute

	stalenessThreshold, err := getEnvInt("STALENESS_THRESHOLD_HOURS", 48)
	if err != nil {
		return nil, err
	}
	config.StalenessThreshold = time.Duration(stalenessThreshold) * time.Hour

	if config.LetterWeight+config.DayWeight <= 0 {
		return nil, fmt.Errorf("LETTER_WEIGHT and DAY_WEIGHT must not both be zero")
	}
	if config.DefaultWeeklyRate <= 0 {
		return nil, fmt.Errorf("DEFAULT_WEEKLY_RATE must be positive, got %v", config.DefaultWeeklyRate)
	}
	if config.MinRateSamples < 1 {
		return nil, fmt.Errorf("MIN_RATE_SAMPLES must be at least 1, got %d", config.MinRateSamples)
	}

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
