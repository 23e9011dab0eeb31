package submitter

import (
	"time"

	"admission-intake/internal/common/config"
)

type Config struct {
	Address          string
	DialTimeout      time.Duration
	IOTimeout        time.Duration
	MaxRequestBytes  int // zero sends any size
	MaxResponseBytes int
}

func NewConfig(cc config.ClientConfig) *Config {
	return &Config{
		Address:          cc.Address,
		DialTimeout:      config.GetDuration(cc.DialTimeout),
		IOTimeout:        config.GetDuration(cc.IOTimeout),
		MaxRequestBytes:  cc.MaxRequestBytes,
		MaxResponseBytes: cc.MaxResponseBytes,
	}
}
