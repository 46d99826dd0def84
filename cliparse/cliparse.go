package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the server reads
const EnvPrefix = "BOOTH_"

type Config struct {
	Port           int           `koanf:"port"`
	DatabaseType   string        `koanf:"database_type"`
	DatabaseURL    string        `koanf:"database_url"`
	AppName        string        `koanf:"app_name"`
	TempDir        string        `koanf:"temp_dir"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
	LoginRate      int           `koanf:"login_rate"`  // attempts per minute
	LoginBurst     int           `koanf:"login_burst"` // attempts allowed at once
	TrustProxy     bool          `koanf:"trust_proxy"` // key login limits on X-Forwarded-For
	LogLevel       string        `koanf:"log_level"`
	ConfigFile     string        `koanf:"-"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:           3318,
		DatabaseType:   "sqlite",
		DatabaseURL:    "booth.db",
		AppName:        "booth",
		TempDir:        filepath.Join(os.TempDir(), "booth-uploads"),
		MaxUploadBytes: 32 << 20,
		SessionTTL:     12 * time.Hour,
		LoginRate:      5,
		LoginBurst:     5,
		LogLevel:       "info",
	}
}

// ParseFlags builds the configuration from, lowest priority first:
// defaults, the YAML config file, BOOTH_* environment variables (a .env
// file in the working directory is loaded first), and CLI flags.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("booth", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or SQLite file path")
	fs.StringVar(&cfg.AppName, "name", "", "App name shown on the home screen")
	fs.StringVar(&cfg.TempDir, "temp", "", "Directory for uploaded bundles")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload", 0, "Maximum bundle upload size in bytes")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Idle session lifetime")
	fs.IntVar(&cfg.LoginRate, "login-rate", 0, "Login attempts per minute per client")
	fs.IntVar(&cfg.LoginBurst, "login-burst", 0, "Login attempts allowed in a burst")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Trust X-Forwarded-For from a reverse proxy")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.ConfigFile, "c", "", "YAML config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv(EnvPrefix + "CONFIG")
	}

	merged := Default()
	k := koanf.New(".")

	if cfg.ConfigFile != "" {
		if err := k.Load(file.Provider(cfg.ConfigFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", cfg.ConfigFile, err)
		}
	}

	// BOOTH_DATABASE_URL -> database_url
	envKey := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", &merged, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	merged.ConfigFile = cfg.ConfigFile

	// Flags that were actually passed win
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			merged.Port = cfg.Port
		case "t":
			merged.DatabaseType = cfg.DatabaseType
		case "d":
			merged.DatabaseURL = cfg.DatabaseURL
		case "name":
			merged.AppName = cfg.AppName
		case "temp":
			merged.TempDir = cfg.TempDir
		case "max-upload":
			merged.MaxUploadBytes = cfg.MaxUploadBytes
		case "session-ttl":
			merged.SessionTTL = cfg.SessionTTL
		case "login-rate":
			merged.LoginRate = cfg.LoginRate
		case "login-burst":
			merged.LoginBurst = cfg.LoginBurst
		case "trust-proxy":
			merged.TrustProxy = cfg.TrustProxy
		case "log-level":
			merged.LogLevel = cfg.LogLevel
		}
	})

	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// Validate checks ranges and enumerations
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database type must be sqlite or postgres, got %q", c.DatabaseType)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or BOOTH_DATABASE_URL)")
	}
	if c.TempDir == "" {
		return errors.New("upload temp dir required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return errors.New("login rate and burst must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
