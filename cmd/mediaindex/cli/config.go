package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MEDIAINDEX"

var (
	// configPaths are searched in order for config.yaml when --config is not set.
	configPaths = []string{".", "./config", "/etc/mediaindex", "$HOME/.mediaindex"}
	envFiles    = []string{".env", ".env.local"}
)

// initConfig prepares viper for the command tree. Variables from .env files
// never override the process environment, and MEDIAINDEX_* variables
// override every file based setting.
func initConfig(path string) error {
	loadEnvFiles(".")

	if path != "" {
		viper.SetConfigFile(path)
		loadEnvFiles(filepath.Dir(path))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, dir := range configPaths {
			viper.AddConfigPath(dir)
			loadEnvFiles(os.ExpandEnv(dir))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// loadEnvFiles loads the optional .env files found in dir.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		file := filepath.Join(dir, name)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		_ = godotenv.Load(file)
	}
}
