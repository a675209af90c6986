package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// UseCacheOnFailure lets a run proceed on last-known data when a live
	// fetch fails. Off by default.
	UseCacheOnFailure bool

	// ScrapeOnStart refreshes the unit table from the listing portal before ranking.
	ScrapeOnStart   bool
	PortalURL       string
	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	PagesToScrape   int
	ListingsPerPage int
	ChromeBin       string

	RatesURL             string
	ParallelRateSelector string
	OfficialRateSelector string
	OfficialRateFallback float64
	RatesTimeout         time.Duration

	EstimatesFile string

	BuyerMaxBudget   float64
	BuyerBudgetBasis string
	BuyerZone        string
	BuyerBedrooms    int
	BuyerMinAreaM2   float64
	BuyerAmenities   []string
	MatchLimit       int

	CSVOutputPath string
	LogLevel      string
	MetricsAddr   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "unitcost"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "unitcost123"),
		PostgresDB:       getEnv("POSTGRES_DB", "housing_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		CacheTTL:          time.Duration(getEnvInt("CACHE_TTL_HOURS", 72)) * time.Hour,
		UseCacheOnFailure: getEnvBool("USE_CACHE_ON_FAILURE", false),

		ScrapeOnStart:   getEnvBool("SCRAPE_ON_START", false),
		PortalURL:       getEnv("PORTAL_URL", "https://www.infocasas.com.bo/venta/departamentos/santa-cruz"),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		PagesToScrape:   getEnvInt("PAGES_TO_SCRAPE", 2),
		ListingsPerPage: getEnvInt("LISTINGS_PER_PAGE", 20),
		ChromeBin:       getEnv("CHROME_BIN", ""),

		RatesURL:             getEnv("RATES_URL", "https://www.dolarbluebolivia.click/"),
		ParallelRateSelector: getEnv("PARALLEL_RATE_SELECTOR", "#parallel-sell"),
		OfficialRateSelector: getEnv("OFFICIAL_RATE_SELECTOR", "#official-sell"),
		OfficialRateFallback: getEnvFloat("OFFICIAL_RATE", 6.96),
		RatesTimeout:         time.Duration(getEnvInt("RATES_TIMEOUT_SEC", 15)) * time.Second,

		EstimatesFile: getEnv("ESTIMATES_FILE", ""),

		BuyerMaxBudget:   getEnvFloat("BUYER_MAX_BUDGET", 0),
		BuyerBudgetBasis: getEnv("BUYER_BUDGET_BASIS", "monthly"),
		BuyerZone:        getEnv("BUYER_ZONE", ""),
		BuyerBedrooms:    getEnvInt("BUYER_BEDROOMS", 2),
		BuyerMinAreaM2:   getEnvFloat("BUYER_MIN_AREA_M2", 0),
		BuyerAmenities:   getEnvList("BUYER_AMENITIES"),
		MatchLimit:       getEnvInt("MATCH_LIMIT", 3),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/matches.csv"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
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

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
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

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
