package index

import "github.com/mwantia/mediaindex/pkg/db/models"

// Options configures an Engine.
type Options struct {
	Directory       string
	BaseURL         string
	ThumbnailsDir   string
	RenameOverwrite bool
	Extensions      map[models.Kind][]string
	Exclude         []string
	Hooks           []Registration
}

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Directory:     "uploads",
		BaseURL:       "/media/",
		ThumbnailsDir: ".thumbnails",
		Extensions:    DefaultExtensions,
	}
}

// WithDirectory sets the storage root that is indexed and mutated.
func WithDirectory(dir string) Option {
	return func(o *Options) { o.Directory = dir }
}

// WithBaseURL sets the prefix for the servable url of every item.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// WithThumbnailsDir sets the directory name holding derived artifacts.
// An empty name disables artifact invalidation.
func WithThumbnailsDir(name string) Option {
	return func(o *Options) { o.ThumbnailsDir = name }
}

// WithRenameOverwrite allows rename to replace an existing destination.
func WithRenameOverwrite(overwrite bool) Option {
	return func(o *Options) { o.RenameOverwrite = overwrite }
}

// WithExtensions replaces the allow-list of upload extensions.
func WithExtensions(extensions map[models.Kind][]string) Option {
	return func(o *Options) {
		if len(extensions) > 0 {
			o.Extensions = extensions
		}
	}
}

// WithExclude adds doublestar patterns for entries skipped by the scan.
func WithExclude(patterns ...string) Option {
	return func(o *Options) { o.Exclude = append(o.Exclude, patterns...) }
}

// WithHooks appends hook registrations.
func WithHooks(regs ...Registration) Option {
	return func(o *Options) { o.Hooks = append(o.Hooks, regs...) }
}
