package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the academy server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mail     MailConfig     `yaml:"mail"`
	Site     SiteConfig     `yaml:"site"`
	Auth     AuthConfig     `yaml:"auth"`
	Outbox   OutboxConfig   `yaml:"outbox"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	AnonURL string `yaml:"anon_url"` // low-privilege role used by the RLS prober
}

// RedisConfig holds the Redis connection used for rate limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// MailConfig holds SMTP/SES transport settings for transactional email.
type MailConfig struct {
	Provider       string `yaml:"provider"` // "smtp" (default) or "ses"
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Secure         bool   `yaml:"secure"` // implicit TLS; derived from port 465 unless overridden
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	To             string `yaml:"to"` // routing address for admin notifications
	FromName       string `yaml:"from_name"`
	SESRegion      string `yaml:"ses_region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured transport timeout as a duration.
func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Addr returns the SMTP host:port dial address.
func (c MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MissingConfigError reports required mail variables absent from the environment.
type MissingConfigError struct {
	Vars []string
}

func (e *MissingConfigError) Error() string {
	return "missing required mail configuration: " + strings.Join(e.Vars, ", ")
}

// Validate checks that the required mail settings are present. The returned
// error lists every missing variable name so the API can surface the full
// diagnostic in one response.
func (c MailConfig) Validate() error {
	var missing []string
	if c.User == "" {
		missing = append(missing, "EMAIL_USER")
	}
	if c.Password == "" {
		missing = append(missing, "EMAIL_PASS")
	}
	if c.To == "" {
		missing = append(missing, "EMAIL_TO")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Vars: missing}
	}
	return nil
}

// SiteConfig holds public site settings used to build absolute links.
type SiteConfig struct {
	BaseURL  string   `yaml:"base_url"`
	LogoPath string   `yaml:"logo_path"`
	Name     string   `yaml:"name"`
	Origins  []string `yaml:"allowed_origins"`
}

// AllowedOrigins returns the CORS origin allowlist: the configured origins,
// or the site base URL plus local dev hosts when none are set.
func (c SiteConfig) AllowedOrigins() []string {
	if len(c.Origins) > 0 {
		return c.Origins
	}
	origins := []string{"http://localhost:3000", "http://localhost:8080"}
	if c.BaseURL != "" {
		origins = append([]string{strings.TrimRight(c.BaseURL, "/")}, origins...)
	}
	return origins
}

// LogoURL returns the absolute URL of the site logo, used when the local
// logo file cannot be read at send time.
func (c SiteConfig) LogoURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/assets/logo.png"
}

// AuthConfig holds Google OAuth settings for the staff admin console.
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	CookieName         string `yaml:"cookie_name"`
	SessionTTLHours    int    `yaml:"session_ttl_hours"`
}

// SessionTTL returns the session lifetime as a duration.
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// OutboxConfig holds retry-worker settings for the email outbox.
type OutboxConfig struct {
	Enabled             bool `yaml:"enabled"`
	TickIntervalSeconds int  `yaml:"tick_interval_seconds"`
	MaxAttempts         int  `yaml:"max_attempts"`
	BatchSize           int  `yaml:"batch_size"`
}

// TickInterval returns the worker polling interval as a duration.
func (c OutboxConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "smtp"
	}
	if cfg.Mail.Host == "" {
		cfg.Mail.Host = "smtp.gmail.com"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Mail.Port == 465 {
		cfg.Mail.Secure = true
	}
	if cfg.Mail.TimeoutSeconds == 0 {
		cfg.Mail.TimeoutSeconds = 30
	}
	if cfg.Site.Name == "" {
		cfg.Site.Name = "Goalline Academy"
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = cfg.Site.Name
	}
	if cfg.Mail.SESRegion == "" {
		cfg.Mail.SESRegion = "us-east-1"
	}
	if cfg.Site.LogoPath == "" {
		cfg.Site.LogoPath = "web/assets/logo.png"
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "academy_session"
	}
	if cfg.Auth.SessionTTLHours == 0 {
		cfg.Auth.SessionTTLHours = 24
	}
	if cfg.Outbox.TickIntervalSeconds == 0 {
		cfg.Outbox.TickIntervalSeconds = 60
	}
	if cfg.Outbox.MaxAttempts == 0 {
		cfg.Outbox.MaxAttempts = 5
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 50
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file first (if present) so secrets can live in .env
// locally and in real env vars on the deployment platform.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file is fine; run on defaults + env.
		cfg = &Config{}
		applyDefaults(cfg)
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// ApplyEnv overrides config values from the process environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("EMAIL_USER"); v != "" {
		cfg.Mail.User = v
	}
	if v := os.Getenv("EMAIL_PASS"); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		cfg.Mail.To = v
	}
	if v := os.Getenv("EMAIL_HOST"); v != "" {
		cfg.Mail.Host = v
	}
	if v := os.Getenv("EMAIL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mail.Port = port
			cfg.Mail.Secure = port == 465
		}
	}
	if v := os.Getenv("EMAIL_SECURE"); v != "" {
		cfg.Mail.Secure = v == "true" || v == "1"
	}
	if v := os.Getenv("EMAIL_PROVIDER"); v != "" {
		cfg.Mail.Provider = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Mail.SESRegion = v
	}

	// Site base URL: explicit setting first, then the public-site variable,
	// then the platform-provided host.
	if v := os.Getenv("SITE_URL"); v != "" {
		cfg.Site.BaseURL = v
	} else if v := os.Getenv("NEXT_PUBLIC_SITE_URL"); v != "" {
		cfg.Site.BaseURL = v
	} else if v := os.Getenv("VERCEL_URL"); v != "" {
		cfg.Site.BaseURL = "https://" + v
	}
	if v := os.Getenv("LOGO_PATH"); v != "" {
		cfg.Site.LogoPath = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ANON_DATABASE_URL"); v != "" {
		cfg.Database.AnonURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}

	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}
}
