package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App      App      `yaml:"app"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Remote   Remote   `yaml:"remote"`
}

type App struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"kafka-payments"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

type HTTP struct {
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"user"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"payments_db"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers        []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	GroupID        string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"product-created-events"`
	DepositGroupID string   `yaml:"deposit_group_id" env:"KAFKA_DEPOSIT_GROUP_ID" env-default:"deposit-service"`

	// Consumer redelivery policy. Offsets are only committed once an envelope
	// reaches a terminal state, so these bound the retry loop per message.
	MaxAttempts int           `yaml:"max_attempts" env:"KAFKA_MAX_ATTEMPTS" env-default:"3"`
	Backoff     time.Duration `yaml:"backoff" env:"KAFKA_BACKOFF" env-default:"5s"`
	Workers     int           `yaml:"workers" env:"KAFKA_WORKERS" env-default:"3"`
}

type Remote struct {
	ValidationURL string        `yaml:"validation_url" env:"REMOTE_VALIDATION_URL" env-default:"http://localhost:8082/response/200"`
	Timeout       time.Duration `yaml:"timeout" env:"REMOTE_TIMEOUT" env-default:"5s"`
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// fallback to env vars if file not found
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else {
		// Allow env vars to override config file
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	return cfg, nil
}
