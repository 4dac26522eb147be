package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/archive"
)

// sidecarStemLimit is the exporter's truncation limit for the media-filename
// part of a sidecar name. Long media names keep their full name while their
// sidecar is cut to this many characters.
const sidecarStemLimit = 46

// Pair is one matched unit of work: a media entry plus its sidecar record,
// when one could be located unambiguously.
type Pair struct {
	Media  archive.Entry
	Record *Record
	// SidecarPath is the archive path of the matched sidecar, empty when
	// unmatched.
	SidecarPath string
	// Ambiguous marks entries that found a sidecar candidate but lost it
	// to the no-guess collision policy.
	Ambiguous bool
}

// Matcher pairs media entries with sidecar records in one pass over a
// source's listing. Pairs are produced lazily in archive order; a Matcher
// is not restartable.
type Matcher struct {
	source archive.Source
	log    *zap.SugaredLogger

	media    []archive.Entry
	sidecars map[string]archive.Entry // sidecar base name → entry

	// exactClaims maps a sidecar name to the media name that matches it
	// exactly; heuristicClaims counts non-exact claimants per sidecar.
	exactClaims     map[string]string
	heuristicClaims map[string]int

	next int
}

// NewMatcher indexes the source's listing and returns a matcher ready to
// produce pairs. Only the listing is read here; sidecar content is parsed
// on demand as pairs are produced.
func NewMatcher(source archive.Source, log *zap.SugaredLogger) *Matcher {
	m := &Matcher{
		source:          source,
		log:             log,
		sidecars:        make(map[string]archive.Entry),
		exactClaims:     make(map[string]string),
		heuristicClaims: make(map[string]int),
	}

	for _, e := range source.Entries() {
		switch {
		case archive.IsSidecar(e.Name):
			m.sidecars[e.Name] = e
		default:
			if _, ok := archive.MediaKind(e.Name); ok {
				m.media = append(m.media, e)
			}
		}
	}

	// Claim pass: exact matches are binding; heuristic candidates are only
	// honored when nothing else wants the same sidecar.
	for _, e := range m.media {
		if _, ok := m.sidecars[exactSidecarName(e.Name)]; ok {
			m.exactClaims[exactSidecarName(e.Name)] = e.Name
			continue
		}
		if name, ok := m.heuristicSidecarName(e.Name); ok {
			m.heuristicClaims[name]++
		}
	}
	return m
}

// Remaining reports how many media entries have not been produced yet.
func (m *Matcher) Remaining() int { return len(m.media) - m.next }

// Next produces the next pair, or false when the listing is exhausted.
// Sidecar parse failures degrade to an unmatched pair rather than failing
// the entry.
func (m *Matcher) Next() (Pair, bool) {
	if m.next >= len(m.media) {
		return Pair{}, false
	}
	entry := m.media[m.next]
	m.next++

	pair := Pair{Media: entry}
	sidecar, ambiguous := m.resolveSidecar(entry.Name)
	pair.Ambiguous = ambiguous
	if sidecar == nil {
		return pair, true
	}

	rc, err := m.source.Open(sidecar.Path)
	if err != nil {
		m.log.Warnw("Cannot open sidecar", "sidecar", sidecar.Name, "error", err)
		return pair, true
	}
	defer rc.Close()

	rec, err := ParseRecord(rc)
	if err != nil {
		m.log.Warnw("Cannot parse sidecar", "sidecar", sidecar.Name, "error", err)
		return pair, true
	}
	pair.Record = rec
	pair.SidecarPath = sidecar.Path
	return pair, true
}

// resolveSidecar locates the sidecar entry for a media name under the
// no-guess policy: exact full-name match binds; a heuristic match is used
// only when it is the sole claimant and no exact claim exists for it.
func (m *Matcher) resolveSidecar(mediaName string) (entry *archive.Entry, ambiguous bool) {
	if e, ok := m.sidecars[exactSidecarName(mediaName)]; ok {
		return &e, false
	}

	name, ok := m.heuristicSidecarName(mediaName)
	if !ok {
		return nil, false
	}
	if owner, claimed := m.exactClaims[name]; claimed && owner != mediaName {
		return nil, true
	}
	if m.heuristicClaims[name] > 1 {
		return nil, true
	}
	e := m.sidecars[name]
	return &e, false
}

// exactSidecarName is the sidecar name for an unmangled media filename.
func exactSidecarName(mediaName string) string {
	return mediaName + ".json"
}

// reCounterSuffix matches names like "IMG_0001(1).JPG": the exporter's
// split-archive disambiguation places the counter before the extension on
// the media file but after it on the sidecar.
var reCounterSuffix = regexp.MustCompile(`^(.*)\((\d+)\)(\.[^.]+)$`)

// heuristicSidecarName applies the suffix/truncation heuristics in order
// and returns the first candidate that exists in the sidecar index.
func (m *Matcher) heuristicSidecarName(mediaName string) (string, bool) {
	// Counter rewrite: IMG_0001(1).JPG → IMG_0001.JPG(1).json.
	if g := reCounterSuffix.FindStringSubmatch(mediaName); g != nil {
		candidate := g[1] + g[3] + "(" + g[2] + ").json"
		if _, ok := m.sidecars[candidate]; ok {
			return candidate, true
		}
	}

	// Truncation: sidecar stems are cut to sidecarStemLimit characters.
	if len(mediaName) > sidecarStemLimit {
		candidate := truncateRunes(mediaName, sidecarStemLimit) + ".json"
		if _, ok := m.sidecars[candidate]; ok {
			return candidate, true
		}
	}

	// Edited copies ("IMG_0001-edited.JPG") share the base file's sidecar.
	ext := filepath.Ext(mediaName)
	stem := strings.TrimSuffix(mediaName, ext)
	if base, found := strings.CutSuffix(stem, "-edited"); found {
		candidate := base + ext + ".json"
		if _, ok := m.sidecars[candidate]; ok {
			return candidate, true
		}
	}

	return "", false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
