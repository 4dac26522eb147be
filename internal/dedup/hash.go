// Package dedup provides content identity: a streaming sha256 hasher and a
// durable digest→path index with atomic check-and-reserve semantics.
//
// Digests are always computed over the original bytes, before any format
// conversion. The same photo exported in two encodings is two distinct
// contents; reordering hashing after conversion would break dedup across
// encodings.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// hashChunkSize bounds per-read memory while hashing a stream.
const hashChunkSize = 64 * 1024

// Hasher accumulates a streaming content digest. It implements io.Writer so
// it can sit in an io.MultiWriter while bytes are staged to disk.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a sha256 content hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Digest returns the hex digest of everything written so far.
func (h *Hasher) Digest() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// HashReader consumes r fully and returns its content digest.
func HashReader(r io.Reader) (string, error) {
	h := NewHasher()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return h.Digest(), nil
}
