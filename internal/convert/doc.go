// Package convert turns space-hungry image formats into JPEG.
//
// Conversion operates on staged local files, never on archive entries
// directly, and preserves embedded EXIF where the source carries it.
// A failed conversion is not fatal to the asset: callers keep the
// original bytes and record that conversion was skipped.
package convert
