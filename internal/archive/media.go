package archive

import (
	"path/filepath"
	"strings"
)

// Kind is the coarse media kind used for destination subtree selection.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Supported image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".heif": true,
	".webp": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Supported video extensions.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
	".m4v": true,
	".3gp": true,
}

// MediaKind classifies a filename by extension. The second return is false
// for anything that is not a recognized media file (including sidecars).
func MediaKind(name string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExtensions[ext]:
		return KindImage, true
	case videoExtensions[ext]:
		return KindVideo, true
	}
	return "", false
}

// IsSidecar reports whether name is a sidecar metadata record.
func IsSidecar(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}
