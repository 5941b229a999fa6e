package index

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeNameChars = regexp.MustCompile(`[^\w\s-]`)

// SanitizeFilename converts name into a storage safe form. Every dot
// separated chunk is decomposed, stripped to ASCII word characters, spaces
// and dashes, then spaces become underscores and the result is lowercased.
func SanitizeFilename(name string) string {
	chunks := strings.Split(name, ".")
	for i, chunk := range chunks {
		chunks[i] = strings.TrimSpace(unsafeNameChars.ReplaceAllString(toASCII(chunk), ""))
	}

	sanitized := strings.Join(chunks, ".")
	return strings.ToLower(strings.ReplaceAll(sanitized, " ", "_"))
}

func toASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))

	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Extension returns the lowercased extension of filename including the dot.
func Extension(filename string) string {
	return strings.ToLower(path.Ext(filename))
}

// validName rejects names that would be unaddressable or hidden after sanitizing.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.Trim(name, "._-") != ""
}
