package redis

import (
	"testing"

	"github.com/dkwon/alphadesk/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(nil, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(nil, "key", "value", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "SeriesKey",
			fn:       func() string { return SeriesKey("AAPL", "2021-08-25", "2026-08-25") },
			expected: "series:AAPL:2021-08-25:2026-08-25",
		},
		{
			name:     "PredictionKey",
			fn:       func() string { return PredictionKey("AAPL") },
			expected: "prediction:AAPL",
		},
		{
			name:     "HeadlinesKey",
			fn:       func() string { return HeadlinesKey("MSFT") },
			expected: "headlines:MSFT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
