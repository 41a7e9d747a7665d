package realtime

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config tunes listener buffers and websocket keepalive.
type Config struct {
	ClientBuffer int
	WriteTimeout time.Duration
	PingInterval time.Duration
	CheckOrigin  func(r *http.Request) bool
	Logger       *zap.Logger
	Observer     Observer
}

func (c Config) withDefaults() Config {
	if c.ClientBuffer <= 0 {
		c.ClientBuffer = 16
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = func(*http.Request) bool { return true }
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
