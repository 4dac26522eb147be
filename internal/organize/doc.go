// Package organize owns the canonical destination tree: timestamped
// file names, the photos/videos split, collision handling, and the
// final atomic placement of staged files.
package organize
