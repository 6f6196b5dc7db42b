package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "motion.visualize", cfg.RabbitMQRequestQueue)
	assert.Equal(t, "./extract_mvs", cfg.ExtractorBin)
	assert.Equal(t, 1, cfg.ValidationFrames)
	assert.Equal(t, 8.0, cfg.NormalizedArrowLength)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EXTRACTOR_BIN", "/opt/ffmpeg/extract_mvs")
	t.Setenv("VALIDATION_FRAMES", "3")
	t.Setenv("ARROW_SCALE", "2.5")
	t.Setenv("CACHE_SIZE", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/extract_mvs", cfg.ExtractorBin)
	assert.Equal(t, 3, cfg.ValidationFrames)
	assert.Equal(t, 2.5, cfg.ArrowScale)
	assert.Equal(t, 4, cfg.CacheSize)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("CACHE_SIZE", "many")

	_, err := Load()
	assert.Error(t, err)
}
