package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type BaseConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Index    IndexConfig    `mapstructure:"index"    yaml:"index"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// MetricsConfig controls where scan metrics are exported to.
// An empty textfile disables the export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

func LoadConfig() (*BaseConfig, error) {
	cfg := &BaseConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that cannot be turned into a working agent.
func (cfg *BaseConfig) Validate() error {
	switch cfg.Metadata.Type {
	case MetadataTypeSQLite:
		if cfg.Metadata.SQLite.Path == "" {
			return fmt.Errorf("metadata.sqlite.path is required")
		}
	default:
		return fmt.Errorf("unsupported metadata type '%s'", cfg.Metadata.Type)
	}

	switch cfg.Storage.Type {
	case StorageTypeLocal:
		if cfg.Storage.Local.Path == "" {
			return fmt.Errorf("storage.local.path is required")
		}
	case StorageTypeS3:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unsupported storage type '%s'", cfg.Storage.Type)
	}

	return nil
}
