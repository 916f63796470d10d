package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunelab/tune/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const tunePrefix = "TUNE"

type Config struct {
	TuneHome    string `mapstructure:"tune_home"`
	Environment string `mapstructure:"environment"`
	ModelsDir   string `mapstructure:"models_dir"`
	CacheDir    string `mapstructure:"cache_dir"`
}

var config *Config

// LoadEnvAndConfigFiles resolves the tune home directory, loads the optional
// .env and config.yaml files from it, and unmarshals the result.
func LoadEnvAndConfigFiles() error {
	tuneHome, err := getTuneHome()
	if err != nil {
		return err
	}

	modelsDir, err := getModelsDir(tuneHome)
	if err != nil {
		return err
	}

	cacheDir, err := getCacheDir(tuneHome)
	if err != nil {
		return err
	}

	if err := createTuneHomeDirs(tuneHome); err != nil {
		return err
	}

	// Defaults only: values in config.yaml still take precedence.
	viper.SetDefault("tune_home", tuneHome)
	viper.SetDefault("models_dir", modelsDir)
	viper.SetDefault("cache_dir", cacheDir)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(tuneHome, ".env")
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat .env file: %w", err)
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(tunePrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(tuneHome)
	}

	return LoadConfig(false)
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return nil
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	return nil
}

func GetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func IsLoaded() bool {
	return config != nil
}

// Returns the tune home directory path.
// It attempts to retrieve the tune home directory from the following sources in order:
// 1. The `tune_home` flag from viper.
// 2. The `TUNE_HOME` environment variable.
// 3. The default tune home directory.
func getTuneHome() (string, error) {
	tuneHome := viper.GetString("tune_home")
	if tuneHome == "" {
		tuneHome = os.Getenv("TUNE_HOME")
		if tuneHome == "" {
			tuneHome = DefaultTuneHome
		}
	}

	tuneHome, err := pathutil.ExpandPath(tuneHome)
	if err != nil {
		return "", fmt.Errorf("failed to expand tune home path: %w", err)
	}

	return tuneHome, nil
}

func getModelsDir(tuneHome string) (string, error) {
	if tuneHome == "" {
		return "", ErrTuneHomeNotSet
	}

	modelsDir := viper.GetString("models_dir")
	if modelsDir == "" {
		modelsDir = filepath.Join(tuneHome, "models")
	}

	modelsDir, err := pathutil.ExpandPath(modelsDir)
	if err != nil {
		return "", ErrTuneHomeExpandFailed
	}

	return modelsDir, nil
}

func getCacheDir(tuneHome string) (string, error) {
	if tuneHome == "" {
		return "", ErrTuneHomeNotSet
	}

	cacheDir := viper.GetString("cache_dir")
	if cacheDir == "" {
		cacheDir = filepath.Join(tuneHome, "cache")
	}

	cacheDir, err := pathutil.ExpandPath(cacheDir)
	if err != nil {
		return "", ErrTuneHomeExpandFailed
	}

	return cacheDir, nil
}

func createTuneHomeDirs(tuneHome string) error {
	subdirs := []string{"models", "cache"}
	if err := os.MkdirAll(tuneHome, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create tune home directory: %w", err)
	}

	for _, subdir := range subdirs {
		dir := filepath.Join(tuneHome, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}
