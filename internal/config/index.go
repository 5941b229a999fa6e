package config

// IndexConfig controls how the media directory is mirrored into the index
type IndexConfig struct {
	// Directory is the root inside the storage that is indexed and mutated.
	Directory       string              `mapstructure:"directory"        yaml:"directory"`
	URL             string              `mapstructure:"url"              yaml:"url"`
	ThumbnailsDir   string              `mapstructure:"thumbnails_dir"   yaml:"thumbnails_dir"`
	RenameOverwrite bool                `mapstructure:"rename_overwrite" yaml:"rename_overwrite"`
	Audit           bool                `mapstructure:"audit"            yaml:"audit"`
	Extensions      map[string][]string `mapstructure:"extensions"       yaml:"extensions"`
	Exclude         []string            `mapstructure:"exclude"          yaml:"exclude"`
}
