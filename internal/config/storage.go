package config

// Supported storage backends. The backend is selected once at startup.
const (
	StorageTypeLocal = "local"
	StorageTypeS3    = "s3"
)

// StorageConfig holds the file store configuration
type StorageConfig struct {
	Type  string             `mapstructure:"type"  yaml:"type"`
	Local StorageLocalConfig `mapstructure:"local" yaml:"local"`
	S3    StorageS3Config    `mapstructure:"s3"    yaml:"s3"`
}

type StorageLocalConfig struct {
	Path       string `mapstructure:"path"        yaml:"path"`
	CreateDirs bool   `mapstructure:"create_dirs" yaml:"create_dirs"`
}

type StorageS3Config struct {
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Region    string `mapstructure:"region"     yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"    yaml:"use_ssl"`
	Prefix    string `mapstructure:"prefix"     yaml:"prefix"`
}
