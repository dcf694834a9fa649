package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/transit/pkg/config"
)

type storeConfig struct {
	Addr    string `env:"ADDR" envDefault:"localhost:6379"`
	Retries int    `env:"RETRIES" envDefault:"3"`
}

type loadedConfig struct {
	Name string `env:"TRANSIT_TEST_NAME" envDefault:"orders"`
}

type brokenConfig struct {
	Port int `env:"TRANSIT_TEST_PORT"`
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse[storeConfig](config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, 3, cfg.Retries)
}

func TestParse_Prefix(t *testing.T) {
	cfg, err := config.Parse[storeConfig](
		config.WithPrefix("REDIS_"),
		config.WithEnvironment(map[string]string{"REDIS_ADDR": "cache:6380", "ADDR": "ignored"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.Addr)
}

func TestParse_InvalidValue(t *testing.T) {
	_, err := config.Parse[storeConfig](config.WithEnvironment(map[string]string{"RETRIES": "many"}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestParse_EnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ADDR=file:1\nRETRIES=7\n"), 0o600))

	cfg, err := config.Parse[storeConfig](
		config.WithEnvFiles(path),
		config.WithEnvironment(map[string]string{"RETRIES": "9"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "file:1", cfg.Addr)
	assert.Equal(t, 9, cfg.Retries)

	_, err = config.Parse[storeConfig](config.WithEnvFiles(filepath.Join(t.TempDir(), "missing.env")))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestLoad_Caches(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("TRANSIT_TEST_NAME", "first")
	var a loadedConfig
	require.NoError(t, config.Load(&a))
	assert.Equal(t, "first", a.Name)

	t.Setenv("TRANSIT_TEST_NAME", "second")
	var b loadedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Name)

	config.Reset()
	var c loadedConfig
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "second", c.Name)
}

func TestLoad_Errors(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	assert.ErrorIs(t, config.Load[loadedConfig](nil), config.ErrNilPointer)

	t.Setenv("TRANSIT_TEST_PORT", "not-a-number")
	var cfg brokenConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
