package app

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/kinde/pkg/httpx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Issuer            string `yaml:"issuer"`              // Required: https://<business>.kinde.com
	RedirectURI       string `yaml:"redirect_uri"`        // Required: loopback URI registered with Kinde
	ClientID          string `yaml:"client_id"`           // Required
	ClientSecret      string `yaml:"client_secret"`       // Optional: public clients omit it
	LogoutRedirectURI string `yaml:"logout_redirect_uri"` // Required
	Scope             string `yaml:"scope"`               // Optional (default: openid profile email offline)
	Audience          string `yaml:"audience"`            // Optional: sent as the audience authorize parameter
	VerifyIDToken     bool   `yaml:"verify_id_token"`     // Optional: verify ID tokens against the issuer's JWKS

	Store StoreConfig `yaml:"store"`

	Env       string `yaml:"env"`        // Environment (dev, prod) (default: prod)
	LogLevel  string `yaml:"log_level"`  // Log level (debug, info, warn, error) (default: warn)
	LogFormat string `yaml:"log_format"` // Log format (json, text) (default: text)

	APIRateLimit httpx.RateLimitConfig `yaml:"-"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver"`         // memory, sqlite, redis (default: sqlite)
	SQLiteFile    string `yaml:"sqlite_file"`    // default: kinde-session.db
	RedisAddr     string `yaml:"redis_addr"`     // host:port
	RedisPassword string `yaml:"redis_password"` // Optional
	RedisDB       int    `yaml:"redis_db"`
	Session       string `yaml:"session"` // Name of the session inside the backend (default: default)
	// Key enables at-rest encryption of every stored value when set.
	Key string `yaml:"key"`
}

// LoadDotEnv loads variables from paths (./.env when empty) without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig reads the optional YAML file named by KINDE_CONFIG_FILE and
// applies environment overrides on top of it.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("KINDE_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings this package owns. The Kinde settings are
// validated by kinde.New.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("KINDE_REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Driver:     StoreSQLite,
			SQLiteFile: "kinde-session.db",
			Session:    "default",
		},
		Env:          "prod",
		LogLevel:     "warn",
		LogFormat:    "text",
		APIRateLimit: httpx.APILimit,
	}
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Issuer = getEnvOrDefault("KINDE_ISSUER_URL", cfg.Issuer)
	cfg.RedirectURI = getEnvOrDefault("KINDE_REDIRECT_URI", cfg.RedirectURI)
	cfg.ClientID = getEnvOrDefault("KINDE_CLIENT_ID", cfg.ClientID)
	cfg.ClientSecret = getEnvOrDefault("KINDE_CLIENT_SECRET", cfg.ClientSecret)
	cfg.LogoutRedirectURI = getEnvOrDefault("KINDE_LOGOUT_REDIRECT_URI", cfg.LogoutRedirectURI)
	cfg.Scope = getEnvOrDefault("KINDE_SCOPE", cfg.Scope)
	cfg.Audience = getEnvOrDefault("KINDE_AUDIENCE", cfg.Audience)
	cfg.VerifyIDToken = getEnvBoolOrDefault("KINDE_VERIFY_ID_TOKEN", cfg.VerifyIDToken)

	cfg.Store.Driver = strings.ToLower(getEnvOrDefault("KINDE_STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.SQLiteFile = getEnvOrDefault("KINDE_SQLITE_FILE", cfg.Store.SQLiteFile)
	cfg.Store.RedisAddr = getEnvOrDefault("KINDE_REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = getEnvOrDefault("KINDE_REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.RedisDB = getEnvIntOrDefault("KINDE_REDIS_DB", cfg.Store.RedisDB)
	cfg.Store.Session = getEnvOrDefault("KINDE_SESSION_NAME", cfg.Store.Session)
	cfg.Store.Key = getEnvOrDefault("KINDE_STORE_KEY", cfg.Store.Key)

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	cfg.APIRateLimit = httpx.ParseRateLimitFromEnv("KINDE_API_RATE_LIMIT", cfg.APIRateLimit)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}
