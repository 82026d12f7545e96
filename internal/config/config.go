package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Broker    BrokerConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Senders   SendersConfig
	Defaults  DefaultsConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type BrokerConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	VHost       string
	Exchange    string
	ServiceName string
	RetryCount  int
	RetryDelay  time.Duration
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	TemplateTTL time.Duration
}

type SchedulerConfig struct {
	Interval time.Duration
}

// SendersConfig tunes the mock provider transports used outside production.
type SendersConfig struct {
	FailureRate float64
}

type DefaultsConfig struct {
	Locale     string
	MaxRetries int
}

// Load reads config.yaml (when present) with environment-variable overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetDefault("server.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "notifications")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("broker.host", "localhost")
	v.SetDefault("broker.port", 5672)
	v.SetDefault("broker.username", "guest")
	v.SetDefault("broker.password", "guest")
	v.SetDefault("broker.vhost", "/")
	v.SetDefault("broker.exchange", "notifications.events")
	v.SetDefault("broker.servicename", "notifications-service")
	v.SetDefault("broker.retrycount", 5)
	v.SetDefault("broker.retrydelay", "5s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.templatettl", "5m")

	v.SetDefault("scheduler.interval", "30s")

	v.SetDefault("senders.failurerate", 0.0)

	v.SetDefault("defaults.locale", "en")
	v.SetDefault("defaults.maxretries", 3)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
