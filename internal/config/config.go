package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	PoolSize int    `mapstructure:"pool_size" validate:"gt=0"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret" validate:"required"`
	MaxAge time.Duration `mapstructure:"max_age" validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl" validate:"gt=0"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl" validate:"gt=0"`
	PasswordResetTTL time.Duration `mapstructure:"password_reset_ttl" validate:"gt=0"`
	PasswordResetURL string        `mapstructure:"password_reset_url" validate:"required,url"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Addr returns the host:port the HTTP server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RedisAddr returns the host:port of the session store.
func (c Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// Load reads configuration from the environment (optionally seeded from a .env file),
// applies defaults and validates the result.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct constraints on the loaded configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Database.Driver != "sqlite" && c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("invalid config: database.host is required for driver %s", c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "taskuser")
	v.SetDefault("database.password", "taskpassword")
	v.SetDefault("database.name", "task_management")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("session.secret", "default-secret-key-change-me")
	v.SetDefault("session.max_age", 7*24*time.Hour)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 24*time.Hour)
	v.SetDefault("auth.password_reset_ttl", time.Hour)
	v.SetDefault("auth.password_reset_url", "http://127.0.0.1:3000/reset-password")

	v.SetDefault("openai.api_key", "")
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.host",
		"server.port",
		"server.mode",
		"server.shutdown_timeout",
		"logging.level",
		"database.driver",
		"database.dsn",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.name",
		"database.ssl_mode",
		"redis.host",
		"redis.port",
		"redis.password",
		"redis.pool_size",
		"session.secret",
		"session.max_age",
		"auth.jwt_secret",
		"auth.access_token_ttl",
		"auth.refresh_token_ttl",
		"auth.password_reset_ttl",
		"auth.password_reset_url",
		"openai.api_key",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
