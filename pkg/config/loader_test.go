package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Port     int           `env:"PF_TEST_PORT" envDefault:"8080"`
	LogLevel string        `env:"PF_TEST_LOG_LEVEL" envDefault:"info"`
	TTL      time.Duration `env:"PF_TEST_TTL" envDefault:"2h"`
	Origins  []string      `env:"PF_TEST_ORIGINS" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sample
	require.NoError(t, Load(&cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.TTL)
	assert.Empty(t, cfg.Origins)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PF_TEST_PORT=9090\nPF_TEST_ORIGINS=http://a.test,http://b.test\n"), 0o600))
	t.Setenv("PF_TEST_PORT", "7070")
	t.Cleanup(func() { _ = os.Unsetenv("PF_TEST_ORIGINS") })

	var cfg sample
	require.NoError(t, Load(&cfg, path))

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("PF_TEST_TTL", "soon")

	var cfg sample
	err := Load(&cfg, filepath.Join(t.TempDir(), "missing.env"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
