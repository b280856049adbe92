package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/grid-eta-service/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_RespectsLevel(t *testing.T) {
	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestNewLogger_DefaultsToInfo(t *testing.T) {
	logger := NewLogger(&config.Config{})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Fallbacks.WithLabelValues("weather").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Fallbacks.WithLabelValues("weather")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Fallbacks.WithLabelValues("weather")))
}
