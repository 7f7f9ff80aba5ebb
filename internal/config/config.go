package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 2333
	defaultEnv      = "development"
	defaultDSN      = "root:password@tcp(127.0.0.1:3306)/askspace?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisURL = "redis://localhost:6379/0"
	defaultSiteName = "AskSpace"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int        `yaml:"port"`
	DSN            string     `yaml:"dsn"` // MySQL DSN
	RedisURL       string     `yaml:"redis_url"`
	Env            string     `yaml:"env"` // "development" | "production"
	JWTSecret      string     `yaml:"jwt_secret"`
	AllowedOrigins []string   `yaml:"allowed_origins"`
	SiteName       string     `yaml:"site_name"`
	BaseURL        string     `yaml:"base_url"` // public frontend URL, used in email links
	Mail           MailConfig `yaml:"mail"`
	AI             AIConfig   `yaml:"ai"`
	Admin          AuthConfig `yaml:"admin"`
}

// MailConfig holds outbound mail provider settings.
type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

// AIConfig points at the collaborator service used for tagging,
// embeddings and recommendations.
type AIConfig struct {
	Enable  bool   `yaml:"enable"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// AuthConfig holds identity-provider settings for admin sign-in.
type AuthConfig struct {
	// SocialiteSecret is the shared secret the identity provider presents
	// when exchanging an email for an admin session.
	SocialiteSecret string `yaml:"socialite_secret"`
}

// Load reads and validates the YAML config at path.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("invalid env %q in %q, expected development or production", cfg.Env, path)
	}
	if cfg.IsProd() && cfg.Admin.SocialiteSecret == "" {
		return nil, fmt.Errorf("admin.socialite_secret is required in production")
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		DSN:      defaultDSN,
		RedisURL: defaultRedisURL,
		SiteName: defaultSiteName,
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}

// IsProd reports whether the app runs in production mode.
func (c *AppConfig) IsProd() bool {
	return c.Env == "production"
}
