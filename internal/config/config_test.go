package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvAndConfigFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TUNE_HOME", home)
	viper.Reset()
	config = nil

	require.NoError(t, LoadEnvAndConfigFiles())

	cfg := GetConfig()
	assert.Equal(t, home, cfg.TuneHome)
	assert.Equal(t, filepath.Join(home, "models"), cfg.ModelsDir)
	assert.Equal(t, filepath.Join(home, "cache"), cfg.CacheDir)

	for _, subdir := range []string{"models", "cache"} {
		info, err := os.Stat(filepath.Join(home, subdir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadEnvAndConfigFilesReadsConfigYAML(t *testing.T) {
	home := t.TempDir()
	modelsDir := filepath.Join(home, "custom-models")
	t.Setenv("TUNE_HOME", home)
	viper.Reset()
	config = nil

	configYAML := "environment: production\nmodels_dir: " + modelsDir + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(configYAML), 0644))

	require.NoError(t, LoadEnvAndConfigFiles())

	cfg := GetConfig()
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, modelsDir, cfg.ModelsDir)
}

func TestIsLoaded(t *testing.T) {
	config = nil
	assert.False(t, IsLoaded())

	config = &Config{}
	assert.True(t, IsLoaded())
}
