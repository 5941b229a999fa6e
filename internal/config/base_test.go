package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefault()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "uploads", cfg.Index.Directory)
	assert.False(t, cfg.Index.RenameOverwrite)
}

func TestValidateRejectsUnsupportedTypes(t *testing.T) {
	cfg := GetDefault()
	cfg.Storage.Type = "ftp"
	assert.ErrorContains(t, cfg.Validate(), "unsupported storage type 'ftp'")

	cfg = GetDefault()
	cfg.Metadata.Type = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "unsupported metadata type 'postgres'")

	cfg = GetDefault()
	cfg.Storage.Type = StorageTypeS3
	assert.ErrorContains(t, cfg.Validate(), "storage.s3.bucket is required")
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("index.directory", "library")
	viper.Set("index.rename_overwrite", true)
	viper.Set("storage.type", StorageTypeS3)
	viper.Set("storage.s3.bucket", "media")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "library", cfg.Index.Directory)
	assert.True(t, cfg.Index.RenameOverwrite)
	assert.Equal(t, "media", cfg.Storage.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.S3.Region)
	assert.Equal(t, ".thumbnails", cfg.Index.ThumbnailsDir)
}
