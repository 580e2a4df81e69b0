package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/expenses")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 0.85, cfg.Recognition.AutoCreateThreshold, 1e-9)
	assert.InDelta(t, 0.6, cfg.Recognition.ReviewThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.Recognition.SuggestThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Recognition.MinTextLength)
	assert.InDelta(t, 0.3, cfg.Recognition.MerchantMinConfidence, 1e-9)
	assert.Equal(t, 5, cfg.Recognition.MerchantMaxResults)
	assert.True(t, cfg.Recognition.UseTrigramMatcher)

	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 256, cfg.Queue.Size)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/expenses")
	t.Setenv("OCR_AUTO_CREATE_THRESHOLD", "0.9")
	t.Setenv("OCR_MIN_TEXT_LENGTH", "10")
	t.Setenv("OCR_USE_TRIGRAM_MATCHER", "false")
	t.Setenv("QUEUE_PROCESS_TIMEOUT", "45s")
	t.Setenv("DB_MAX_CONNS", "8")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 0.9, cfg.Recognition.AutoCreateThreshold, 1e-9)
	assert.Equal(t, 10, cfg.Recognition.MinTextLength)
	assert.False(t, cfg.Recognition.UseTrigramMatcher)
	assert.Equal(t, 45*time.Second, cfg.Queue.ProcessTimeout)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/expenses")
	t.Setenv("OCR_AUTO_CREATE_THRESHOLD", "very high")
	t.Setenv("QUEUE_WORKERS", "many")

	cfg := LoadConfig()
	assert.InDelta(t, 0.85, cfg.Recognition.AutoCreateThreshold, 1e-9)
	assert.Equal(t, 4, cfg.Queue.Workers)
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("DB_URL", "")
	cfg := LoadConfig()
	assert.Error(t, cfg.Validate())

	t.Setenv("DB_URL", "postgres://localhost:5432/expenses")
	t.Setenv("OCR_AUTO_CREATE_THRESHOLD", "1.5")
	cfg = LoadConfig()
	assert.Error(t, cfg.Validate())

	t.Setenv("OCR_AUTO_CREATE_THRESHOLD", "0.85")
	t.Setenv("OCR_MIN_TEXT_LENGTH", "0")
	cfg = LoadConfig()
	assert.Error(t, cfg.Validate())
}
