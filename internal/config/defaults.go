package config

import "github.com/spf13/viper"

func GetDefault() BaseConfig {
	return BaseConfig{
		ShutdownTimeout: "10s",

		Log: LogConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		Metadata: MetadataConfig{
			Type: MetadataTypeSQLite,
			SQLite: MetadataSQLiteConfig{
				Path: "./mediaindex.db",
			},
		},
		Storage: StorageConfig{
			Type: StorageTypeLocal,
			Local: StorageLocalConfig{
				Path:       "./media",
				CreateDirs: true,
			},
			S3: StorageS3Config{
				Region: "us-east-1",
				UseSSL: true,
			},
		},
		Index: IndexConfig{
			Directory:       "uploads",
			URL:             "/media/",
			ThumbnailsDir:   ".thumbnails",
			RenameOverwrite: false,
			Audit:           false,
			Extensions: map[string][]string{
				"image":    {".jpg", ".jpeg", ".gif", ".png", ".tif", ".tiff"},
				"video":    {".mov", ".wmv", ".mpeg", ".mpg", ".avi", ".rm", ".swf", ".flv", ".mp4", ".m4v", ".webm"},
				"document": {".pdf", ".doc", ".rtf", ".txt", ".xls", ".csv", ".docx", ".xlsx"},
				"audio":    {".mp3", ".wav", ".aiff", ".midi", ".m4p", ".ogg"},
				"code":     {".html", ".py", ".js", ".css"},
			},
			Exclude: []string{},
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
	}
}

func setDefaults() {
	defaults := GetDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)

	viper.SetDefault("storage.type", defaults.Storage.Type)
	viper.SetDefault("storage.local.path", defaults.Storage.Local.Path)
	viper.SetDefault("storage.local.create_dirs", defaults.Storage.Local.CreateDirs)
	viper.SetDefault("storage.s3.endpoint", defaults.Storage.S3.Endpoint)
	viper.SetDefault("storage.s3.bucket", defaults.Storage.S3.Bucket)
	viper.SetDefault("storage.s3.region", defaults.Storage.S3.Region)
	viper.SetDefault("storage.s3.access_key", defaults.Storage.S3.AccessKey)
	viper.SetDefault("storage.s3.secret_key", defaults.Storage.S3.SecretKey)
	viper.SetDefault("storage.s3.use_ssl", defaults.Storage.S3.UseSSL)
	viper.SetDefault("storage.s3.prefix", defaults.Storage.S3.Prefix)

	viper.SetDefault("index.directory", defaults.Index.Directory)
	viper.SetDefault("index.url", defaults.Index.URL)
	viper.SetDefault("index.thumbnails_dir", defaults.Index.ThumbnailsDir)
	viper.SetDefault("index.rename_overwrite", defaults.Index.RenameOverwrite)
	viper.SetDefault("index.audit", defaults.Index.Audit)
	viper.SetDefault("index.extensions", defaults.Index.Extensions)
	viper.SetDefault("index.exclude", defaults.Index.Exclude)

	viper.SetDefault("metrics.textfile", defaults.Metrics.Textfile)
}
