package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresAdminHash(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("LOAD_DEBOUNCE", "150ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, uint(3), cfg.LoadRetryAttempts)
	assert.Equal(t, 150*time.Millisecond, cfg.LoadDebounce)
	assert.Equal(t, 30*time.Minute, cfg.ViewSessionTTL)
	assert.Equal(t, "en-US", cfg.Locale)
	assert.False(t, cfg.IsProduction())
}

func TestValidateRejectsZeroRetries(t *testing.T) {
	cfg := Config{AdminPasswordHash: "x", ViewSessionTTL: time.Hour}
	assert.Error(t, cfg.Validate())
}
