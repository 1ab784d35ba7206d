package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/events"
	"github.com/maumercado/anticaptcha-go/internal/logger"
)

func init() {
	logger.Init("error", false)
}

func TestNewPublisher(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"no redis configured", ""},
		{"redis unreachable", "127.0.0.1:1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			publisher := newPublisher(&config.RedisConfig{Addr: tc.addr})
			t.Cleanup(func() { _ = publisher.Close() })

			assert.IsType(t, &events.LocalBus{}, publisher)
		})
	}
}
