package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("OVERLAY_TEST_PORT", "7000")
	t.Setenv("OVERLAY_TEST_EMPTY", "")

	assert.Equal(t, "7000", GetEnv("OVERLAY_TEST_PORT", "5000"))
	assert.Equal(t, "5000", GetEnv("OVERLAY_TEST_EMPTY", "5000"))
	assert.Equal(t, "5000", GetEnv("OVERLAY_TEST_UNSET", "5000"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("OVERLAY_TEST_DB", "3")
	t.Setenv("OVERLAY_TEST_BAD", "three")

	assert.Equal(t, 3, GetEnvInt("OVERLAY_TEST_DB", 0))
	assert.Equal(t, 0, GetEnvInt("OVERLAY_TEST_BAD", 0))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("OVERLAY_TEST_TIMEOUT", "250ms")
	t.Setenv("OVERLAY_TEST_BAD", "soon")

	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("OVERLAY_TEST_TIMEOUT", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("OVERLAY_TEST_BAD", time.Second))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OVERLAY_TEST_FROM_FILE=yes\nOVERLAY_TEST_PRESET=file\n"), 0o600))
	t.Setenv("OVERLAY_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("OVERLAY_TEST_FROM_FILE") })

	require.NoError(t, Load(path))
	assert.Equal(t, "yes", GetEnv("OVERLAY_TEST_FROM_FILE", ""))
	assert.Equal(t, "env", GetEnv("OVERLAY_TEST_PRESET", ""), "existing variables are not overridden")

	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.env")))
}
