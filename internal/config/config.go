package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"bpih-platform/internal/forecast"
	"bpih-platform/pkg/database"
	"bpih-platform/pkg/logging"
)

// ConfigFileEnv names the optional YAML file layered over the defaults
const ConfigFileEnv = "BPIH_CONFIG_FILE"

// Dataset sources
const (
	SourceStatic   = "static"
	SourcePostgres = "postgres"
)

// Advisor providers
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Market   MarketConfig   `yaml:"market"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Forecast ForecastConfig `yaml:"forecast"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// AskPerMinute limits advisor questions across all clients
	AskPerMinute int `yaml:"ask_per_minute"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// Connection converts the section to the database package's config
func (d DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type DatasetConfig struct {
	// Source is "static" (compiled-in Keppres table) or "postgres"
	Source string `yaml:"source"`
}

type MarketConfig struct {
	FinnhubAPIKey  string                    `yaml:"finnhub_api_key"`
	FinnhubBaseURL string                    `yaml:"finnhub_base_url"`
	FixerAPIKey    string                    `yaml:"fixer_api_key"`
	FixerBaseURL   string                    `yaml:"fixer_base_url"`
	Timeout        time.Duration             `yaml:"timeout"`
	Gold           forecast.SignalAdjustment `yaml:"gold"`
	Currency       forecast.SignalAdjustment `yaml:"currency"`
}

// Live reports whether both market API keys are configured
func (m MarketConfig) Live() bool {
	return m.FinnhubAPIKey != "" && m.FixerAPIKey != ""
}

type AdvisorConfig struct {
	Provider          string        `yaml:"provider"`
	OpenRouterAPIKey  string        `yaml:"openrouter_api_key"`
	OpenRouterBaseURL string        `yaml:"openrouter_base_url"`
	OpenRouterModel   string        `yaml:"openrouter_model"`
	GeminiAPIKey      string        `yaml:"gemini_api_key"`
	GeminiModel       string        `yaml:"gemini_model"`
	Timeout           time.Duration `yaml:"timeout"`
}

type ForecastConfig struct {
	DefaultYears     int     `yaml:"default_years"`
	MaxYears         int     `yaml:"max_years"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 45 * time.Second,
			IdleTimeout:  60 * time.Second,
			AskPerMinute: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "bpih",
			Database:        "bpih",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info"},
		Dataset: DatasetConfig{Source: SourceStatic},
		Market: MarketConfig{
			FinnhubBaseURL: "https://finnhub.io/api/v1",
			FixerBaseURL:   "http://data.fixer.io/api",
			Timeout:        10 * time.Second,
			Gold:           forecast.DefaultGoldAdjustment(),
			Currency:       forecast.DefaultCurrencyAdjustment(),
		},
		Advisor: AdvisorConfig{
			Provider:          ProviderOpenRouter,
			OpenRouterBaseURL: "https://openrouter.ai/api/v1",
			OpenRouterModel:   "qwen/qwen-2.5-72b-instruct",
			GeminiModel:       "gemini-2.0-flash",
			Timeout:           30 * time.Second,
		},
		Forecast: ForecastConfig{
			DefaultYears:     5,
			MaxYears:         30,
			AnomalyThreshold: 0.5,
		},
	}
}

// LoadConfig layers defaults, an optional .env file, the optional YAML file
// named by BPIH_CONFIG_FILE, and finally the process environment
func LoadConfig() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from environment variables. Malformed numbers and
// durations are reported rather than ignored.
func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.stringVar("SERVER_HOST", &c.Server.Host)
	e.intVar("SERVER_PORT", &c.Server.Port)
	e.durationVar("SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	e.durationVar("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout)
	e.durationVar("SERVER_IDLE_TIMEOUT", &c.Server.IdleTimeout)
	e.intVar("ASK_RATE_PER_MINUTE", &c.Server.AskPerMinute)

	e.stringVar("DB_HOST", &c.Database.Host)
	e.intVar("DB_PORT", &c.Database.Port)
	e.stringVar("DB_USER", &c.Database.User)
	e.stringVar("DB_PASSWORD", &c.Database.Password)
	e.stringVar("DB_NAME", &c.Database.Database)
	e.stringVar("DB_SSLMODE", &c.Database.SSLMode)
	e.intVar("DB_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	e.intVar("DB_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)

	e.stringVar("LOG_LEVEL", &c.Logging.Level)
	e.stringVar("DATASET_SOURCE", &c.Dataset.Source)

	e.stringVar("FINNHUB_API_KEY", &c.Market.FinnhubAPIKey)
	e.stringVar("FINNHUB_BASE_URL", &c.Market.FinnhubBaseURL)
	e.stringVar("FIXER_API_KEY", &c.Market.FixerAPIKey)
	e.stringVar("FIXER_BASE_URL", &c.Market.FixerBaseURL)
	e.durationVar("MARKET_TIMEOUT", &c.Market.Timeout)
	e.floatVar("GOLD_BASELINE", &c.Market.Gold.Baseline)
	e.floatVar("GOLD_CORRELATION", &c.Market.Gold.Correlation)
	e.floatVar("EXCHANGE_RATE_BASELINE", &c.Market.Currency.Baseline)
	e.floatVar("EXCHANGE_RATE_EXPOSURE", &c.Market.Currency.Correlation)

	e.stringVar("ADVISOR_PROVIDER", &c.Advisor.Provider)
	e.stringVar("OPENROUTER_API_KEY", &c.Advisor.OpenRouterAPIKey)
	e.stringVar("OPENROUTER_BASE_URL", &c.Advisor.OpenRouterBaseURL)
	e.stringVar("OPENROUTER_MODEL", &c.Advisor.OpenRouterModel)
	e.stringVar("GEMINI_API_KEY", &c.Advisor.GeminiAPIKey)
	e.stringVar("GEMINI_MODEL", &c.Advisor.GeminiModel)
	e.durationVar("ADVISOR_TIMEOUT", &c.Advisor.Timeout)

	e.intVar("FORECAST_DEFAULT_YEARS", &c.Forecast.DefaultYears)
	e.floatVar("ANOMALY_THRESHOLD", &c.Forecast.AnomalyThreshold)

	return e.err
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.AskPerMinute < 0 {
		return fmt.Errorf("ask rate must not be negative, got %d", c.Server.AskPerMinute)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch c.Dataset.Source {
	case SourceStatic:
	case SourcePostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("dataset source %q needs database host and name", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown dataset source %q", c.Dataset.Source)
	}

	switch c.Advisor.Provider {
	case ProviderOpenRouter, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("unknown advisor provider %q", c.Advisor.Provider)
	}

	for name, adj := range map[string]forecast.SignalAdjustment{"gold": c.Market.Gold, "currency": c.Market.Currency} {
		if adj.Baseline <= 0 {
			return fmt.Errorf("%s baseline must be positive, got %v", name, adj.Baseline)
		}
		if adj.MaxAdjustmentFraction < 0 || adj.MaxAdjustmentFraction > 1 {
			return fmt.Errorf("%s max adjustment must be within [0, 1], got %v", name, adj.MaxAdjustmentFraction)
		}
	}

	if c.Forecast.MaxYears < 1 {
		return fmt.Errorf("forecast max years must be positive, got %d", c.Forecast.MaxYears)
	}
	if c.Forecast.DefaultYears < 1 || c.Forecast.DefaultYears > c.Forecast.MaxYears {
		return fmt.Errorf("forecast default years must be within [1, %d], got %d", c.Forecast.MaxYears, c.Forecast.DefaultYears)
	}
	if c.Forecast.AnomalyThreshold <= 0 {
		return fmt.Errorf("anomaly threshold must be positive, got %v", c.Forecast.AnomalyThreshold)
	}

	return nil
}

type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (e *envReader) stringVar(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) intVar(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) floatVar(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}
