package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppCfg struct {
	Env          string        `yaml:"env"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CORSOrigin   string        `yaml:"cors_origin"`
	JWT          struct {
		Secret   string `yaml:"secret"`
		TTLHours int    `yaml:"ttlHours"`
	} `yaml:"jwt"`
}

type MongoCfg struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisCfg struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MailCfg struct {
	APIKey    string `yaml:"apiKey"`
	FromEmail string `yaml:"fromEmail"`
	FromName  string `yaml:"fromName"`
}

type SecurityCfg struct {
	OtpTTLMinutes               int `yaml:"otpTTLMinutes"`
	OtpRateLimitPerEmailPerHour int `yaml:"otpRateLimitPerEmailPerHour"`
	PinHashCost                 int `yaml:"pinHashCost"`
}

type Config struct {
	App      AppCfg      `yaml:"app"`
	Mongo    MongoCfg    `yaml:"mongo"`
	Redis    RedisCfg    `yaml:"redis"`
	Mail     MailCfg     `yaml:"mail"`
	Security SecurityCfg `yaml:"security"`
}

// Load reads the YAML config file and applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	override := func(env string, apply func(string)) {
		if v := os.Getenv(env); v != "" {
			apply(v)
		}
	}
	overrideInt := func(env string, apply func(int)) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				apply(n)
			}
		}
	}

	override("APP_ENV", func(v string) { cfg.App.Env = v })
	overrideInt("APP_PORT", func(n int) { cfg.App.Port = n })
	override("CORS_ORIGIN", func(v string) { cfg.App.CORSOrigin = v })
	override("JWT_SECRET", func(v string) { cfg.App.JWT.Secret = v })
	overrideInt("JWT_TTL_HOURS", func(n int) { cfg.App.JWT.TTLHours = n })
	override("MONGO_URI", func(v string) { cfg.Mongo.URI = v })
	override("MONGO_DB", func(v string) { cfg.Mongo.Database = v })
	override("REDIS_ADDR", func(v string) { cfg.Redis.Addr = v })
	override("REDIS_PASSWORD", func(v string) { cfg.Redis.Password = v })
	overrideInt("REDIS_DB", func(n int) { cfg.Redis.DB = n })
	override("MAIL_API_KEY", func(v string) { cfg.Mail.APIKey = v })
	override("MAIL_FROM_EMAIL", func(v string) { cfg.Mail.FromEmail = v })
	override("MAIL_FROM_NAME", func(v string) { cfg.Mail.FromName = v })
	overrideInt("OTP_TTL_MINUTES", func(n int) { cfg.Security.OtpTTLMinutes = n })
	overrideInt("OTP_RATE_LIMIT_PER_EMAIL_PER_HOUR", func(n int) { cfg.Security.OtpRateLimitPerEmailPerHour = n })
	overrideInt("PIN_HASH_COST", func(n int) { cfg.Security.PinHashCost = n })

	if cfg.App.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required (set in .env or config.yaml)")
	}
	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGO_URI is required")
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Port == 0 {
		cfg.App.Port = 5000
	}
	if cfg.App.JWT.TTLHours == 0 {
		cfg.App.JWT.TTLHours = 24 * 7
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "budget-tracker"
	}
	if cfg.Security.OtpTTLMinutes == 0 {
		cfg.Security.OtpTTLMinutes = 10
	}
	if cfg.Security.OtpRateLimitPerEmailPerHour == 0 {
		cfg.Security.OtpRateLimitPerEmailPerHour = 5
	}
	if cfg.Security.PinHashCost == 0 {
		cfg.Security.PinHashCost = 12
	}
}
