package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// diskOwner marks a path claimed by a file that already exists in the
// destination, placed by an earlier run. It can never equal a digest.
const diskOwner = "\x00existing-file"

// CollisionResolver tracks output paths claimed by content digests.
// Distinct photos taken in the same second with the same camera
// counter would otherwise overwrite each other; the resolver
// disambiguates them with a digest-prefix suffix. Claims come from two
// places: digests resolved during this run, and files already sitting
// in the destination from earlier runs. All methods are
// goroutine-safe.
type CollisionResolver struct {
	mu     sync.Mutex
	owners map[string]string // output path → digest that owns it
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{owners: make(map[string]string)}
}

// Resolve returns the final output path for a digest. If requested is
// unclaimed in this run and absent from the destination (or already
// owned by digest) it is returned as-is. Otherwise variants carrying
// 8, then 16, then all hex characters of the digest are tried. The
// full digest is unique per content, so the loop terminates.
func (cr *CollisionResolver) Resolve(digest, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.claim(digest, requested) {
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for _, n := range []int{8, 16, len(digest)} {
		if n > len(digest) {
			n = len(digest)
		}
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, digest[:n], ext))
		if cr.claim(digest, candidate) {
			return candidate
		}
	}
	// Unreachable unless two distinct files share a digest. Placement
	// itself still refuses to overwrite.
	return requested
}

// claim records digest as the owner of path when path is free: not
// claimed this run and not occupied by a file from an earlier run.
// Returns true when digest owns path afterwards.
func (cr *CollisionResolver) claim(digest, path string) bool {
	if owner, exists := cr.owners[path]; exists {
		return owner == digest
	}
	if _, err := os.Stat(path); err == nil {
		cr.owners[path] = diskOwner
		return false
	}
	cr.owners[path] = digest
	return true
}
