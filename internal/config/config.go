package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MailChimp MailChimpConfig `yaml:"mailchimp"`
	Identity  IdentityConfig  `yaml:"identity"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// MailChimpConfig holds mailing-list API configuration.
//
// Credentials is an opaque, already base64-encoded "user:key" string sent
// verbatim after "Basic ". When it is empty, APIKey is sent with Username
// through regular basic auth.
type MailChimpConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Credentials    string `yaml:"credentials"`
	Username       string `yaml:"username"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	ListPageSize   int    `yaml:"list_page_size"`
}

// Timeout returns the configured timeout as a duration
func (c MailChimpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Datacenter extracts the datacenter suffix from an API key ("abc123-us6" -> "us6").
func (c MailChimpConfig) Datacenter() string {
	i := strings.LastIndex(c.APIKey, "-")
	if i < 0 || i == len(c.APIKey)-1 {
		return ""
	}
	return c.APIKey[i+1:]
}

// Identity modes
const (
	IdentityHeader       = "header"
	IdentityRedisSession = "redis_session"
	IdentityStatic       = "static"
)

// IdentityConfig selects how the current user's email is resolved.
type IdentityConfig struct {
	Mode          string `yaml:"mode"`
	Header        string `yaml:"header"`
	CookieName    string `yaml:"cookie_name"`
	SessionPrefix string `yaml:"session_prefix"`
	StaticEmail   string `yaml:"static_email"`
}

// RedisConfig holds the shared session store location.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// ShouldRedact reports whether PII redaction is on. Defaults to true.
func (c LoggingConfig) ShouldRedact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.MailChimp.TimeoutSeconds == 0 {
		cfg.MailChimp.TimeoutSeconds = 30
	}
	if cfg.MailChimp.Username == "" {
		cfg.MailChimp.Username = "anystring"
	}
	if cfg.MailChimp.BaseURL == "" {
		if dc := cfg.MailChimp.Datacenter(); dc != "" {
			cfg.MailChimp.BaseURL = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc)
		}
	}
	cfg.MailChimp.BaseURL = strings.TrimRight(cfg.MailChimp.BaseURL, "/")
	if cfg.Identity.Mode == "" {
		cfg.Identity.Mode = IdentityHeader
	}
	if cfg.Identity.Header == "" {
		cfg.Identity.Header = "X-Auth-Request-Email"
	}
	if cfg.Identity.CookieName == "" {
		cfg.Identity.CookieName = "session"
	}
	if cfg.Identity.SessionPrefix == "" {
		cfg.Identity.SessionPrefix = "session:"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// A missing config file is not an error here; defaults and env are used.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
	} else if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("MAILCHIMP_API_KEY"); v != "" {
		cfg.MailChimp.APIKey = v
	}
	if v := os.Getenv("MAILCHIMP_CREDENTIALS"); v != "" {
		cfg.MailChimp.Credentials = v
	}
	if v := os.Getenv("MAILCHIMP_BASE_URL"); v != "" {
		cfg.MailChimp.BaseURL = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("IDENTITY_MODE"); v != "" {
		cfg.Identity.Mode = v
	}
	if v := os.Getenv("IDENTITY_STATIC_EMAIL"); v != "" {
		cfg.Identity.StaticEmail = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Validate checks that the settings needed to talk to the remote API and to
// resolve identities are present.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.MailChimp.BaseURL == "" {
		errs = append(errs, errors.New("mailchimp.base_url is required (or an api_key with a datacenter suffix)"))
	}
	if cfg.MailChimp.APIKey == "" && cfg.MailChimp.Credentials == "" {
		errs = append(errs, errors.New("mailchimp.api_key or mailchimp.credentials is required"))
	}
	if cfg.MailChimp.MaxRetries < 0 {
		errs = append(errs, errors.New("mailchimp.max_retries must not be negative"))
	}
	switch cfg.Identity.Mode {
	case IdentityHeader:
	case IdentityRedisSession:
		if cfg.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for identity mode redis_session"))
		}
	case IdentityStatic:
		if cfg.Identity.StaticEmail == "" {
			errs = append(errs, errors.New("identity.static_email is required for identity mode static"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown identity.mode %q", cfg.Identity.Mode))
	}
	return errors.Join(errs...)
}
