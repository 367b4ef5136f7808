package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// IdentityMode selects how mini-program login codes are exchanged for an openid.
type IdentityMode string

const (
	// IdentityModeWeChat calls the WeChat jscode2session endpoint.
	IdentityModeWeChat IdentityMode = "wechat"
	// IdentityModeMock derives the openid from the code itself (development only).
	IdentityModeMock IdentityMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityMode.
func (m *IdentityMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "wechat", "mock":
		*m = IdentityMode(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentityMode: %q (valid options: wechat, mock)", v)
	}
}

type WeChatConfig struct {
	AppID   string        `env:"APPID"`
	Secret  string        `env:"SECRET"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.weixin.qq.com"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

type Config struct {
	// Env is the deployment mode. NODE_ENV is honored when APP_ENV is unset.
	Env  string `env:"APP_ENV"`
	Port string `env:"PORT" envDefault:"3000"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Sessions
	JWTSecret  string        `env:"JWT_SECRET,required"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Identity provider
	IdentityMode IdentityMode `env:"IDENTITY_MODE" envDefault:"wechat"`
	WeChat       WeChatConfig `envPrefix:"WX_"`

	// HTTP
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	BodyLimit   int    `env:"BODY_LIMIT"   envDefault:"4194304"`
	MaxPageSize int    `env:"MAX_PAGE_SIZE" envDefault:"100"`

	// Observability
	LogRetention           time.Duration `env:"LOG_RETENTION" envDefault:"720h"`
	SentryDSN              string        `env:"SENTRY_DSN"`
	SentryTracesSampleRate float64       `env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0.2"`
}

// Load reads an optional .env file and then parses the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts, then applies
// guardrails and validation.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	nodeEnv := os.Getenv("NODE_ENV")
	if opts.Environment != nil {
		nodeEnv = opts.Environment["NODE_ENV"]
	}
	cfg.Sanitize(nodeEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sanitize fills derived defaults and clamps out-of-range values.
func (c *Config) Sanitize(nodeEnv string) {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = strings.ToLower(strings.TrimSpace(nodeEnv))
	}
	if c.Env == "" {
		c.Env = "development"
	}

	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * 24 * time.Hour
	}
	if c.WeChat.Timeout <= 0 {
		c.WeChat.Timeout = 10 * time.Second
	}
	c.WeChat.BaseURL = strings.TrimRight(c.WeChat.BaseURL, "/")
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.BodyLimit <= 0 {
		c.BodyLimit = 4 * 1024 * 1024
	}
	if c.LogRetention <= 0 {
		c.LogRetention = 30 * 24 * time.Hour
	}
	if c.SentryTracesSampleRate < 0 || c.SentryTracesSampleRate > 1 {
		c.SentryTracesSampleRate = 0.2
	}
}

// Validate reports configuration that must stop the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	switch c.IdentityMode {
	case IdentityModeWeChat:
		if c.WeChat.AppID == "" || c.WeChat.Secret == "" {
			errs = append(errs, errors.New("WX_APPID and WX_SECRET are required when IDENTITY_MODE=wechat"))
		}
	case IdentityModeMock:
		if c.IsProduction() {
			errs = append(errs, errors.New("IDENTITY_MODE=mock is not allowed in production"))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
