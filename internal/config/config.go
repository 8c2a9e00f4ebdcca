package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN,required,notEmpty"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig is optional. An empty URL disables idempotency keys and
// event fan-out.
type RedisConfig struct {
	URL            string        `env:"REDIS_URL"`
	EventsChannel  string        `env:"REDIS_EVENTS_CHANNEL" envDefault:"wagerledger.events"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	DialTimeout    time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
}

func (rc RedisConfig) Enabled() bool {
	return rc.URL != ""
}

type AuthConfig struct {
	AccessSecret string `env:"JWT_ACCESS_SECRET,required,notEmpty"`
	Issuer       string `env:"JWT_ISSUER"`
}

type LogConfig struct {
	Level  string `env:"APP_LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"APP_LOG_PRETTY" envDefault:"false"`
}

type APIConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Log             LogConfig
	Postgres        PostgresConfig
	Redis           RedisConfig
	Auth            AuthConfig
}

type MigratorConfig struct {
	DSN    string `env:"PG_DSN,required,notEmpty"`
	AppEnv string `env:"APP_ENV" envDefault:"PROD"`
	Log    LogConfig
}

// Load fills dst from the environment. Values from a .env file in the
// working directory are applied first but never override real variables.
func Load(dst any) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	err = env.Parse(dst)
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
