package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Application modes
const (
	ModePipeline = "pipeline"
	ModeBatch    = "batch"
)

type RabbitMQConfig struct {
	URL string
}

type DBconfig struct {
	URL string
}

type HTTPConfig struct {
	Enabled bool
	Port    int
}

type StdoutLogConfig struct {
	Level string
	Color bool
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// OlxConfig holds the site and fetch settings.
type OlxConfig struct {
	BaseURL        string
	AllowedDomains []string
	FeaturedOffers int
	Timezone       string

	RandomDelay    time.Duration
	RequestTimeout time.Duration
	// CacheDir enables the on-disk response cache when set
	CacheDir string
}

// AppConfig holds the whole application configuration.
type AppConfig struct {
	AppName string
	Mode    string

	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	HTTP         HTTPConfig
	Olx          OlxConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig

	// SearchesFile is a YAML file with predefined searches; built-in defaults are used when empty
	SearchesFile string
	// OutputFile adds a JSON file sink next to Postgres when set
	OutputFile string
}

// LoadConfig reads the configuration from the environment, after loading the .env file if there is one.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
		}
		log.Printf("Info: no .env file found (path: %v), using the process environment\n", envPath)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "olx-parser-service")
	cfg.Mode = strings.ToLower(getEnvAsString("APP_MODE", ModePipeline))
	if cfg.Mode != ModePipeline && cfg.Mode != ModeBatch {
		return nil, fmt.Errorf("APP_MODE must be %q or %q, got %q", ModePipeline, ModeBatch, cfg.Mode)
	}

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	if cfg.RabbitMQ.URL == "" && cfg.Mode == ModePipeline {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required in %s mode", ModePipeline)
	}

	cfg.HTTP.Enabled = getEnvAsBool("HTTP_ENABLED", true)
	cfg.HTTP.Port = getEnvAsInt("HTTP_PORT", 8080)

	cfg.Olx.BaseURL = strings.TrimRight(getEnvAsString("OLX_BASE_URL", "https://www.olx.pl"), "/")
	cfg.Olx.AllowedDomains = getEnvAsStringSlice("OLX_ALLOWED_DOMAINS", []string{"olx.pl", "www.olx.pl"})
	cfg.Olx.FeaturedOffers = getEnvAsInt("OLX_FEATURED_OFFERS", 3)
	if cfg.Olx.FeaturedOffers < 0 {
		return nil, fmt.Errorf("OLX_FEATURED_OFFERS cannot be negative")
	}
	cfg.Olx.Timezone = getEnvAsString("OLX_TIMEZONE", "Europe/Warsaw")
	cfg.Olx.RandomDelay = time.Duration(getEnvAsInt("FETCH_RANDOM_DELAY_MS", 3000)) * time.Millisecond
	cfg.Olx.RequestTimeout = time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.Olx.CacheDir = getEnvAsString("FETCH_CACHE_DIR", "")

	cfg.SearchesFile = getEnvAsString("SEARCHES_FILE", "")
	cfg.OutputFile = getEnvAsString("OUTPUT_FILE", "")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StdoutLogger.Color = getEnvAsBool("STDOUT_LOG_COLOR", true)

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt logs a warning and falls back to the default when the value is not an int.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(strings.TrimSpace(valStr))
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsStringSlice splits a comma separated value, dropping empty items.
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
