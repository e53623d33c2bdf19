package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment   string `mapstructure:"ENV"`
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN" validate:"required"`
	DBDSN         string `mapstructure:"DB_DSN" validate:"required"`

	// Backend REST API
	APIBaseURL string        `mapstructure:"API_BASE_URL" validate:"required,url"`
	APIToken   string        `mapstructure:"API_TOKEN"`
	APITimeout time.Duration `mapstructure:"API_TIMEOUT" validate:"gt=0"`

	Timezone string `mapstructure:"TIMEZONE" validate:"required"`
	Currency string `mapstructure:"CURRENCY" validate:"required,len=3"`

	// Hosted payment page, {client_secret} заменяется секретом payment intent
	PaymentCheckoutURL string `mapstructure:"PAYMENT_CHECKOUT_URL" validate:"required,url"`

	WebhookAddr   string `mapstructure:"WEBHOOK_ADDR" validate:"required"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET" validate:"required,min=16"`

	CompensationInterval time.Duration `mapstructure:"COMPENSATION_INTERVAL" validate:"gt=0"`
	FlowTTL              time.Duration `mapstructure:"FLOW_TTL" validate:"gt=0"`
	RateLimitDelay       time.Duration `mapstructure:"RATE_LIMIT_DELAY" validate:"gte=0"`
	MigrationsEnabled    bool          `mapstructure:"MIGRATIONS_ENABLED"`

	location *time.Location
}

var keys = []string{
	"ENV", "TELEGRAM_TOKEN", "DB_DSN",
	"API_BASE_URL", "API_TOKEN", "API_TIMEOUT",
	"TIMEZONE", "CURRENCY", "PAYMENT_CHECKOUT_URL",
	"WEBHOOK_ADDR", "WEBHOOK_SECRET",
	"COMPENSATION_INTERVAL", "FLOW_TTL", "RATE_LIMIT_DELAY", "MIGRATIONS_ENABLED",
}

// Load читает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromViper(viper.New())
}

// FromViper собирает Config из переданного экземпляра viper
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	// AutomaticEnv не работает с Unmarshal без явного связывания ключей
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Currency = strings.ToLower(cfg.Currency)
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded\n")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("API_TIMEOUT", 15*time.Second)
	v.SetDefault("TIMEZONE", "Europe/Paris")
	v.SetDefault("CURRENCY", "eur")
	v.SetDefault("WEBHOOK_ADDR", ":8080")
	v.SetDefault("COMPENSATION_INTERVAL", 5*time.Minute)
	v.SetDefault("FLOW_TTL", 2*time.Hour)
	v.SetDefault("RATE_LIMIT_DELAY", 5*time.Second)
	v.SetDefault("MIGRATIONS_ENABLED", true)
}

// Validate проверяет обязательные поля и загружает часовой пояс
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	return nil
}

// Location возвращает часовой пояс расписаний учителей
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
