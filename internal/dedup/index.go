package dedup

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrIndexUnavailable marks failures of the durable index. The pipeline
// treats these as run-fatal: without the index the at-most-one-writer
// guarantee cannot hold.
var ErrIndexUnavailable = errors.New("dedup index unavailable")

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	digest     TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	first_seen TIMESTAMP NOT NULL
);
`

// Index is the digest→canonical-path store backing deduplication. It is
// durable across runs and safe for concurrent reservation; entries are
// never evicted by the pipeline (compaction is external maintenance).
type Index struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// OpenIndex opens (creating if needed) the index database at path.
// WAL mode allows concurrent worker reads during reservation writes.
func OpenIndex(path string, log *zap.SugaredLogger) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithSecondaryError(ErrIndexUnavailable, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.WithSecondaryError(ErrIndexUnavailable, errors.Wrap(err, pragma))
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.WithSecondaryError(ErrIndexUnavailable, errors.Wrap(err, "create schema"))
	}

	log.Debugw("Dedup index opened", "path", path)
	return &Index{db: db, log: log}, nil
}

// Reserve atomically claims a digest for path. Exactly one concurrent
// caller per digest observes accepted=true; all others receive the accepted
// caller's path (or a prior run's) in existing.
func (ix *Index) Reserve(digest, path string) (accepted bool, existing string, err error) {
	tx, err := ix.db.Begin()
	if err != nil {
		return false, "", errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO assets (digest, path, first_seen) VALUES (?, ?, ?) ON CONFLICT(digest) DO NOTHING",
		digest, path, time.Now().UTC(),
	)
	if err != nil {
		return false, "", errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, "", errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	if n == 1 {
		if err := tx.Commit(); err != nil {
			return false, "", errors.WithSecondaryError(ErrIndexUnavailable, err)
		}
		return true, "", nil
	}

	if err := tx.QueryRow("SELECT path FROM assets WHERE digest = ?", digest).Scan(&existing); err != nil {
		return false, "", errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return false, "", errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	return false, existing, nil
}

// UpdatePath rewrites the canonical path for a reserved digest. Used when
// the final path differs from the reserved one (conversion fell back to
// passthrough, or a name collision forced a suffix).
func (ix *Index) UpdatePath(digest, path string) error {
	_, err := ix.db.Exec("UPDATE assets SET path = ? WHERE digest = ?", path, digest)
	if err != nil {
		return errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	return nil
}

// Release drops a reservation whose write failed, so a later run can retry
// the asset instead of treating it as already written.
func (ix *Index) Release(digest string) error {
	_, err := ix.db.Exec("DELETE FROM assets WHERE digest = ?", digest)
	if err != nil {
		return errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	return nil
}

// Len returns the number of reserved digests.
func (ix *Index) Len() (int64, error) {
	var n int64
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM assets").Scan(&n); err != nil {
		return 0, errors.WithSecondaryError(ErrIndexUnavailable, err)
	}
	return n, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
