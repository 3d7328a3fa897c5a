package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	RatesDataPath      string
	ReportingCurrency  string
	MaxUploadSizeBytes int64

	// Wire reconciliation. Tolerance is in the wire's own currency;
	// the settlement window is counted in calendar days after the sale.
	WireAmountTolerance decimal.Decimal
	WireSettlementDays  int

	ResultCacheExpiry  time.Duration
	ResultCacheCleanup time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	wireToleranceStr := getEnv("WIRE_AMOUNT_TOLERANCE", "5.00")
	wireTolerance, err := decimal.NewFromString(wireToleranceStr)
	if err != nil || wireTolerance.IsNegative() {
		log.Printf("WARNING: Invalid WIRE_AMOUNT_TOLERANCE '%s'. Using default 5.00. Error: %v", wireToleranceStr, err)
		wireTolerance = decimal.RequireFromString("5.00")
	}

	wireSettlementDays := getEnvAsInt("WIRE_SETTLEMENT_DAYS", 7)
	if wireSettlementDays < 0 {
		log.Printf("WARNING: Negative WIRE_SETTLEMENT_DAYS %d. Using default 7.", wireSettlementDays)
		wireSettlementDays = 7
	}

	resultCacheExpiry := getEnvAsDuration("RESULT_CACHE_EXPIRY", 15*time.Minute)
	resultCacheCleanup := getEnvAsDuration("RESULT_CACHE_CLEANUP", 30*time.Minute)

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./vestfolio.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RatesDataPath:      getEnv("RATES_DATA_PATH", "data/historicalExchangeRate.json"),
		ReportingCurrency:  getEnv("REPORTING_CURRENCY", "EUR"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		WireAmountTolerance: wireTolerance,
		WireSettlementDays:  wireSettlementDays,

		ResultCacheExpiry:  resultCacheExpiry,
		ResultCacheCleanup: resultCacheCleanup,
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, ReportingCurrency=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ReportingCurrency)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
