// Package pipeline orchestrates a backup run: archive traversal,
// sidecar matching, hashing, deduplication, conversion, and placement
// into the destination tree, with a per-run report at the end.
package pipeline
