package receiver

import (
	"time"

	"admission-intake/internal/common/config"
)

const DefaultMaxConnections = 256

type Config struct {
	Address          string
	MaxRequestBytes  int
	MaxResponseBytes int
	MaxConnections   int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	StoreTimeout     time.Duration
	PublishTimeout   time.Duration
}

func NewConfig(sc config.ServerConfig) *Config {
	cfg := &Config{
		Address:          sc.Address,
		MaxRequestBytes:  sc.MaxRequestBytes,
		MaxResponseBytes: sc.MaxResponseBytes,
		MaxConnections:   sc.MaxConnections,
		ReadTimeout:      config.GetDuration(sc.ReadTimeout),
		WriteTimeout:     config.GetDuration(sc.WriteTimeout),
		StoreTimeout:     config.GetDuration(sc.StoreTimeout),
		PublishTimeout:   config.GetDuration(sc.PublishTimeout),
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	return cfg
}
