package organize

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CanonicalName builds the timestamped output file name:
//
//	20210614_153042_IMG_0001.jpg
//
// The original stem is kept so related shots stay recognizable, the
// extension is lowercased, and targetExt (when non-empty) overrides
// the original extension after conversion.
func CanonicalName(ts time.Time, originalName, targetExt string) string {
	base := filepath.Base(originalName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if targetExt != "" {
		ext = targetExt
	}
	return fmt.Sprintf("%s_%s%s", ts.Format("20060102_150405"), sanitizeStem(stem), strings.ToLower(ext))
}

// sanitizeStem strips path separators and control characters that
// would break the destination tree. Everything else passes through.
func sanitizeStem(stem string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, stem)
}
