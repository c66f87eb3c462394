package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/sharecalc-api/internal/charges"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string
	RedisURL           string
	RateLimitMax       int
	RateLimitWindow    time.Duration
	MaxBodyBytes       int64

	RegulatoryFeeRate  float64
	IndividualCGTRate  float64
	InstitutionCGTRate float64
	MinLotSize         int
	SlabOverrides      map[charges.Instrument]string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	defaults := charges.DefaultBook()
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		RateLimitMax:       parseInt(k.String("RATE_LIMIT_MAX"), 60),
		RateLimitWindow:    parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<16)),
		RegulatoryFeeRate:  parseFloat(k.String("REGULATORY_FEE_RATE"), defaults.RegulatoryRate),
		IndividualCGTRate:  parseFloat(k.String("CGT_INDIVIDUAL_RATE"), defaults.IndividualCGT),
		InstitutionCGTRate: parseFloat(k.String("CGT_INSTITUTION_RATE"), defaults.InstitutionCGT),
		MinLotSize:         parseInt(k.String("MIN_LOT_SIZE"), defaults.MinLotSize),
		SlabOverrides:      slabOverrides(k),
	}
	return cfg, nil
}

// Book materialises the validated rate book from defaults plus overrides.
func (c *Config) Book() (charges.Book, error) {
	book := charges.DefaultBook()
	book.RegulatoryRate = c.RegulatoryFeeRate
	book.IndividualCGT = c.IndividualCGTRate
	book.InstitutionCGT = c.InstitutionCGTRate
	book.MinLotSize = c.MinLotSize
	for instrument, raw := range c.SlabOverrides {
		table, err := charges.ParseTable(raw)
		if err != nil {
			return charges.Book{}, fmt.Errorf("slab table override for %s: %w", instrument, err)
		}
		book.Tables[instrument] = table
	}
	if err := book.Validate(); err != nil {
		return charges.Book{}, err
	}
	return book, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func slabOverrides(k *koanf.Koanf) map[charges.Instrument]string {
	keys := map[charges.Instrument]string{
		charges.InstrumentEquity:         "SLAB_TABLE_EQUITY",
		charges.InstrumentGovernmentBond: "SLAB_TABLE_GOVERNMENT_BOND",
		charges.InstrumentOther:          "SLAB_TABLE_OTHER",
	}
	out := make(map[charges.Instrument]string)
	for instrument, key := range keys {
		if raw := strings.TrimSpace(k.String(key)); raw != "" {
			out[instrument] = raw
		}
	}
	return out
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
