package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.SpendingReversalClamp, cfg.Orders.SpendingReversal)
	assert.Equal(t, domain.FetchBatched, cfg.Query.FetchStrategy)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
storage:
  driver: memory
orders:
  spending_reversal: fail
query:
  fetch_strategy: distinct
  batch_size: 10
`)
	t.Setenv("QUERY_BATCH_SIZE", "25")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, config.SpendingReversalFail, cfg.Orders.SpendingReversal)
	assert.Equal(t, domain.FetchDistinct, cfg.Query.FetchStrategy)
	assert.Equal(t, domain.ProjectionGrouped, cfg.Query.ProjectionStrategy)
	assert.Equal(t, 25, cfg.Query.BatchSize)
	assert.True(t, cfg.Otel.Enabled)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantError string
	}{
		{
			name:      "unknown driver: fail",
			yaml:      "storage:\n  driver: mongo\n",
			wantError: `cfg.Validate: storage.driver "mongo" is not one of postgres, memory`,
		},
		{
			name:      "unknown reversal policy: fail",
			yaml:      "orders:\n  spending_reversal: ignore\n",
			wantError: `cfg.Validate: orders.spending_reversal "ignore" is not one of clamp, fail`,
		},
		{
			name:      "zero batch size: fail",
			yaml:      "query:\n  batch_size: 0\n",
			wantError: "cfg.Validate: query.batch_size must be >= 1, got 0",
		},
		{
			name:      "unknown projection: fail",
			yaml:      "query:\n  projection_strategy: lazy\n",
			wantError: `cfg.Validate: query.projection_strategy: invalid projection strategy "lazy"`,
		},
		{
			name:      "zero burst with rate limiting on: fail",
			yaml:      "http:\n  rate_limit_per_second: 10\n  rate_limit_burst: 0\n",
			wantError: "cfg.Validate: http.rate_limit_burst must be >= 1 when rate limiting is on, got 0",
		},
		{
			name:      "negative rate: fail",
			yaml:      "http:\n  rate_limit_per_second: -1\n",
			wantError: "cfg.Validate: http.rate_limit_per_second must be >= 0, got -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.yaml))
			require.EqualError(t, err, tt.wantError)
		})
	}
}

func TestLoadRateLimitOffAllowsZeroBurst(t *testing.T) {
	cfg, err := config.Load(writeFile(t, "http:\n  rate_limit_per_second: 0\n  rate_limit_burst: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.HTTP.RateLimitBurst)
}

func TestLoadMalformedEnv(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantError string
	}{
		{
			name:      "burst not an integer: fail",
			env:       map[string]string{"HTTP_RATE_LIMIT_BURST": "lots"},
			wantError: `applyEnv: HTTP_RATE_LIMIT_BURST: "lots" is not an integer`,
		},
		{
			name:      "batch size not an integer: fail",
			env:       map[string]string{"QUERY_BATCH_SIZE": "1e3"},
			wantError: `applyEnv: QUERY_BATCH_SIZE: "1e3" is not an integer`,
		},
		{
			name:      "sample ratio not a number: fail",
			env:       map[string]string{"OTEL_SAMPLER_RATIO": "half"},
			wantError: `applyEnv: OTEL_SAMPLER_RATIO: "half" is not a number`,
		},
		{
			name:      "enabled not a boolean: fail",
			env:       map[string]string{"OTEL_ENABLED": "maybe"},
			wantError: `applyEnv: OTEL_ENABLED: "maybe" is not a boolean`,
		},
		{
			name: "blank values keep defaults: ok",
			env:  map[string]string{"QUERY_BATCH_SIZE": "  ", "HTTP_ADDR": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load("")
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, config.Default(), cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
