package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	LogLevel        string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort        string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort      string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7070"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	Storage   Storage   `yaml:"storage"`
	Redis     Redis     `yaml:"redis"`
	Room      Room      `yaml:"room"`
	Presence  Presence  `yaml:"presence"`
	RateLimit RateLimit `yaml:"rate-limit"`
	CORS      CORS      `yaml:"cors"`
}

type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
	PostgresDSN string `yaml:"postgres-dsn" env:"POSTGRES_DSN"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Room struct {
	CodeAttempts int `yaml:"code-attempts" env:"ROOM_CODE_ATTEMPTS" env-default:"5"`
}

type Presence struct {
	LivenessWindow time.Duration `yaml:"liveness-window" env:"PRESENCE_LIVENESS_WINDOW" env-default:"10s"`
}

type RateLimit struct {
	RequestsPerMinute int `yaml:"requests-per-minute" env:"RATE_LIMIT_RPM" env-default:"600"`
	Burst             int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"60"`
}

type CORS struct {
	AllowOrigins []string `yaml:"allow-origins" env:"CORS_ALLOW_ORIGINS" env-default:"*"`
}

// MustLoad - load configuration from the config.yml file, or from the environment when there is no file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Storage.Driver {
	case StorageRedis, StorageMemory:
	case StoragePostgres:
		if that.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres-dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", that.Storage.Driver)
	}

	if that.Presence.LivenessWindow <= 0 {
		return errors.New("presence.liveness-window must be positive")
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
