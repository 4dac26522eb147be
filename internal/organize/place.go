package organize

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Placer moves staged files into their canonical destination and
// writes the companion records that go with them.
type Placer struct {
	layout Layout
}

// NewPlacer creates a placer over the given layout.
func NewPlacer(layout Layout) *Placer {
	return &Placer{layout: layout}
}

// Place moves a staged file to its final path. The staging area lives
// under the destination root, so the move is a hard link plus unlink
// of the staged name; the final path never holds a partially written
// file. Link fails when the target exists, so a file placed by an
// earlier run can never be overwritten here.
func (p *Placer) Place(stagedPath, finalPath string) error {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return errors.Wrap(err, "create destination dir")
	}
	if err := os.Link(stagedPath, finalPath); err != nil {
		return errors.Wrap(err, "move staged file")
	}
	if err := os.Remove(stagedPath); err != nil {
		return errors.Wrap(err, "clear staged file")
	}
	return nil
}

// MirrorSidecar writes the raw sidecar JSON next to the media tree,
// named after the final media file so the two stay paired.
func (p *Placer) MirrorSidecar(finalMediaPath string, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	base := filepath.Base(finalMediaPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(p.layout.MetadataDir(), stem+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrap(err, "write sidecar mirror")
	}
	return nil
}

// DuplicateRecord documents a skipped duplicate: which archive entry
// carried it and where the canonical copy lives.
type DuplicateRecord struct {
	Digest   string    `json:"digest"`
	Source   string    `json:"source"`
	Existing string    `json:"existing_path"`
	SeenAt   time.Time `json:"seen_at"`
}

// RecordDuplicate writes a duplicate record keyed by digest. Later
// duplicates of the same digest overwrite earlier records, which is
// fine: any one of them names the canonical copy.
func (p *Placer) RecordDuplicate(rec DuplicateRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode duplicate record")
	}
	path := filepath.Join(p.layout.DuplicatesDir(), rec.Digest+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write duplicate record")
	}
	return nil
}

// RemoveDuplicateRecord deletes the record for digest, if present.
// Used when the reservation the record pointed at is rolled back, so
// no record survives that names a path which never came to exist.
func (p *Placer) RemoveDuplicateRecord(digest string) error {
	err := os.Remove(filepath.Join(p.layout.DuplicatesDir(), digest+".json"))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove duplicate record")
	}
	return nil
}

// PreserveOriginal copies pre-conversion bytes into the originals
// tree. The digest prefix keeps same-named files from different
// shoots apart.
func (p *Placer) PreserveOriginal(stagedPath, originalName, digest string) error {
	prefix := digest
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	dst := filepath.Join(p.layout.OriginalsDir(), fmt.Sprintf("%s_%s", prefix, filepath.Base(originalName)))

	in, err := os.Open(stagedPath)
	if err != nil {
		return errors.Wrap(err, "open staged original")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create preserved original")
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrap(err, "copy original")
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "flush preserved original")
	}
	return nil
}
