package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	DataDir        string
	OutputDir      string
	XLSXOutputPath string

	FilterOutliers bool
	OutlierColumn  string

	RapidAPIKey  string
	RapidAPIHost string
	RapidAPIURL  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("ENABLE_POSTGRES", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "analyst"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "analyst123"),
		PostgresDB:       getEnv("POSTGRES_DB", "bnb_costs"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DataDir:        getEnv("DATA_DIR", "./data"),
		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		XLSXOutputPath: getEnv("XLSX_OUTPUT_PATH", "./output/analysis.xlsx"),

		FilterOutliers: getEnvBool("FILTER_OUTLIERS", false),
		OutlierColumn:  getEnv("OUTLIER_COLUMN", "price"),

		RapidAPIKey:  getEnv("RAPIDAPI_KEY", ""),
		RapidAPIHost: getEnv("RAPIDAPI_HOST", "cost-of-living-and-prices.p.rapidapi.com"),
		RapidAPIURL:  getEnv("RAPIDAPI_URL", "https://cost-of-living-and-prices.p.rapidapi.com/prices"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 2),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ListingsDir is where the per-city raw listing dumps live.
func (c *Config) ListingsDir() string {
	return filepath.Join(c.DataDir, "bnb")
}

// IndicatorsDir is where the per-city cost-of-living records live.
func (c *Config) IndicatorsDir() string {
	return filepath.Join(c.DataDir, "cost")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
