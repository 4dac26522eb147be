package convert

import (
	"path/filepath"
	"strings"
)

// Converter rewrites a staged media file into a different format.
type Converter interface {
	// Name identifies the converter in logs and reports.
	Name() string

	// CanConvert reports whether the converter handles the given
	// file name, judged by extension.
	CanConvert(name string) bool

	// TargetExt is the extension of the produced file, with the
	// leading dot.
	TargetExt() string

	// Convert reads src and writes the converted result to dst.
	// dst is created or truncated. On error dst's contents are
	// undefined and the caller discards them.
	Convert(src, dst string) error
}

// Registry selects a converter for a file name.
type Registry struct {
	converters []Converter
}

// NewRegistry builds the default converter set at the given JPEG
// quality.
func NewRegistry(quality int) *Registry {
	return &Registry{
		converters: []Converter{
			newHeicConverter(quality),
			newRasterConverter(quality),
		},
	}
}

// For returns the converter responsible for name, or nil when the
// format is already acceptable as-is.
func (r *Registry) For(name string) Converter {
	for _, c := range r.converters {
		if c.CanConvert(name) {
			return c
		}
	}
	return nil
}

func extOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
