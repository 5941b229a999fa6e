package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input string
		dir   string
		name  string
	}{
		{"photos", "", "photos"},
		{"/photos/", "", "photos"},
		{"photos/a.png", "photos", "a.png"},
		{"photos/2020/a.png", "photos/2020", "a.png"},
		{"photos/../../etc", "photos/../..", "etc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dir, name := splitPath(tt.input)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512", formatSize(512, false))
	assert.Equal(t, "512B", formatSize(512, true))
	assert.Equal(t, "1.5KiB", formatSize(1536, true))
	assert.Equal(t, "2.0MiB", formatSize(2*1024*1024, true))
}
