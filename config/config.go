package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yeremiapane/qr-ordering/utils"
)

const (
	PriceSourceCart = "cart"
	PriceSourceMenu = "menu"
)

type Config struct {
	App struct {
		Port       string `mapstructure:"port"`
		GinMode    string `mapstructure:"gin_mode"`
		CORSOrigin string `mapstructure:"cors_origin"`
	} `mapstructure:"app"`
	Database struct {
		Driver   string `mapstructure:"driver"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		DSN      string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	JWT struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"jwt"`
	Session struct {
		TTL          time.Duration `mapstructure:"ttl"`
		CookieSecure bool          `mapstructure:"cookie_secure"`
	} `mapstructure:"session"`
	Restaurant struct {
		Timezone       string `mapstructure:"timezone"`
		TableCount     int    `mapstructure:"table_count"`
		TakeoutTableID uint   `mapstructure:"takeout_table_id"`
	} `mapstructure:"restaurant"`
	Orders struct {
		PriceSource string `mapstructure:"price_source"`
		IDRetries   int    `mapstructure:"id_retries"`
	} `mapstructure:"orders"`
	Tracking struct {
		PollInterval    time.Duration `mapstructure:"poll_interval"`
		ChangeRetention time.Duration `mapstructure:"change_retention"`
	} `mapstructure:"tracking"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	RateLimit struct {
		RPS   float64 `mapstructure:"rps"`
		Burst int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.gin_mode", "debug")
	v.SetDefault("app.cors_origin", "http://127.0.0.1:5500")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "qr_ordering")
	v.SetDefault("database.dsn", "")

	v.SetDefault("jwt.secret", "")

	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.cookie_secure", false)

	v.SetDefault("restaurant.timezone", "Asia/Bangkok")
	v.SetDefault("restaurant.table_count", 9)
	v.SetDefault("restaurant.takeout_table_id", 9)

	v.SetDefault("orders.price_source", PriceSourceCart)
	v.SetDefault("orders.id_retries", 3)

	v.SetDefault("tracking.poll_interval", 500*time.Millisecond)
	v.SetDefault("tracking.change_retention", 24*time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "order-changes")

	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 50)
}

// Load membaca .env (jika ada), config/config.yml (opsional) lalu environment variable.
// Kunci "session.ttl" dibaca dari SESSION_TTL, dan seterusnya.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("No .env file loaded")
	}

	v := viper.New()
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		utils.InfoLogger.Debug("Config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if _, err := time.LoadLocation(c.Restaurant.Timezone); err != nil {
		return fmt.Errorf("restaurant.timezone: %w", err)
	}
	switch c.Orders.PriceSource {
	case PriceSourceCart, PriceSourceMenu:
	default:
		return fmt.Errorf("orders.price_source must be %q or %q, got %q", PriceSourceCart, PriceSourceMenu, c.Orders.PriceSource)
	}
	if c.Orders.IDRetries < 1 {
		return fmt.Errorf("orders.id_retries must be at least 1")
	}
	if c.Tracking.PollInterval <= 0 {
		return fmt.Errorf("tracking.poll_interval must be positive")
	}
	// secret bawaan hanya untuk development
	if c.App.GinMode == "release" && c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required when app.gin_mode is release")
	}
	return nil
}

// Location zona waktu restoran untuk prefix order id.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Restaurant.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
