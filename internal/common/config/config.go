// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Client        ClientConfig       `mapstructure:"client"`
	Store         StoreConfig        `mapstructure:"store"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the receiver's listener and per-connection limits.
type ServerConfig struct {
	Address          string `mapstructure:"address"`
	MaxRequestBytes  int    `mapstructure:"max_request_bytes"`
	MaxResponseBytes int    `mapstructure:"max_response_bytes"`
	MaxConnections   int    `mapstructure:"max_connections"`
	ReadTimeout      int    `mapstructure:"read_timeout"`    // milliseconds
	WriteTimeout     int    `mapstructure:"write_timeout"`   // milliseconds
	StoreTimeout     int    `mapstructure:"store_timeout"`   // milliseconds
	PublishTimeout   int    `mapstructure:"publish_timeout"` // milliseconds
}

// ClientConfig holds the submitter's endpoint and timeouts.
type ClientConfig struct {
	Address          string `mapstructure:"address"`
	DialTimeout      int    `mapstructure:"dial_timeout"` // milliseconds
	IOTimeout        int    `mapstructure:"io_timeout"`   // milliseconds
	MaxRequestBytes  int    `mapstructure:"max_request_bytes"`
	MaxResponseBytes int    `mapstructure:"max_response_bytes"`
}

// StoreConfig selects the persistence backend and id source.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // sqlite | postgres
	SQLitePath  string `mapstructure:"sqlite_path"`
	Sequence    string `mapstructure:"sequence"` // autoincrement | redis
	SequenceKey string `mapstructure:"sequence_key"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotificationConfig holds settings for the post-commit notifiers.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"ses"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
