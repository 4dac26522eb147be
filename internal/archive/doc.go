// Package archive provides read access to exported photo-library archives.
//
// A [Source] abstracts one input container — a Takeout-style ZIP, a gzipped
// tarball, or an already-extracted directory — as a listing of entries plus
// open-by-name access. Scanning is inherently sequential (one pass per
// archive); the listing is read once up front and entry content is streamed
// on demand. A remote media source would plug in here by implementing
// Source over fetched items.
package archive
