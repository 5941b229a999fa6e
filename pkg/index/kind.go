package index

import (
	"strings"

	"github.com/mwantia/mediaindex/pkg/db/models"
)

// DefaultExtensions is the allow-list used when no extensions are configured.
var DefaultExtensions = map[models.Kind][]string{
	models.KindImage:    {".jpg", ".jpeg", ".gif", ".png", ".tif", ".tiff"},
	models.KindVideo:    {".mov", ".wmv", ".mpeg", ".mpg", ".avi", ".rm", ".swf", ".flv", ".mp4", ".m4v", ".webm"},
	models.KindDocument: {".pdf", ".doc", ".rtf", ".txt", ".xls", ".csv", ".docx", ".xlsx"},
	models.KindAudio:    {".mp3", ".wav", ".aiff", ".midi", ".m4p", ".ogg"},
	models.KindCode:     {".html", ".py", ".js", ".css"},
}

// Classifier maps extensions to kinds and doubles as the upload allow-list.
type Classifier struct {
	kinds map[string]models.Kind
}

// NewClassifier builds a classifier from a kind to extension mapping.
// Extensions are matched case-insensitively, with or without leading dot.
func NewClassifier(extensions map[models.Kind][]string) *Classifier {
	c := &Classifier{
		kinds: make(map[string]models.Kind),
	}

	for kind, list := range extensions {
		for _, ext := range list {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.kinds[ext] = kind
		}
	}

	return c
}

// Classify returns the kind for a filename. Folders are never derived from
// the extension; use models.KindFolder for directory entries.
func (c *Classifier) Classify(filename string) models.Kind {
	return c.kinds[Extension(filename)]
}

// Allowed reports whether filename has an extension from the allow-list.
func (c *Classifier) Allowed(filename string) bool {
	return c.Classify(filename) != models.KindUnknown
}

// ParseExtensions converts the configuration form into classifier input.
// Names of unknown kinds are returned so the caller can report them.
func ParseExtensions(raw map[string][]string) (map[models.Kind][]string, []string) {
	if len(raw) == 0 {
		return DefaultExtensions, nil
	}

	known := make(map[models.Kind]bool, len(models.Kinds))
	for _, kind := range models.Kinds {
		known[kind] = true
	}

	result := make(map[models.Kind][]string, len(raw))
	var skipped []string
	for name, list := range raw {
		kind := models.Kind(strings.ToLower(name))
		if !known[kind] {
			skipped = append(skipped, name)
			continue
		}
		result[kind] = append(result[kind], list...)
	}

	return result, skipped
}
