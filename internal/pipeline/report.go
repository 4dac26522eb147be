package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/display"
)

// Status classifies what happened to a single archive entry.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusDuplicate Status = "duplicate"
	StatusPlanned   Status = "planned" // dry run
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the per-entry result recorded in the run report.
type Outcome struct {
	Source     string `json:"source"`
	Entry      string `json:"entry"`
	Status     Status `json:"status"`
	OutputPath string `json:"output_path,omitempty"`
	Digest     string `json:"digest,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Provenance string `json:"timestamp_source,omitempty"`
	Converted  bool   `json:"converted,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report aggregates counters and outcomes for one run. All methods
// are goroutine-safe.
type Report struct {
	mu sync.Mutex

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	Total             int `json:"total"`
	Placed            int `json:"placed"`
	Converted         int `json:"converted"`
	Duplicates        int `json:"duplicates"`
	Skipped           int `json:"skipped"`
	Failed            int `json:"failed"`
	UnmatchedMetadata int `json:"unmatched_metadata"`

	InputBytes  int64 `json:"input_bytes"`
	OutputBytes int64 `json:"output_bytes"`

	Outcomes []Outcome `json:"outcomes"`
}

// NewReport starts a report clock.
func NewReport() *Report {
	return &Report{Started: time.Now().UTC()}
}

// Add records one outcome and bumps the matching counters.
func (r *Report) Add(o Outcome, inBytes, outBytes int64, unmatched bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Total++
	r.InputBytes += inBytes
	r.OutputBytes += outBytes
	if unmatched {
		r.UnmatchedMetadata++
	}
	switch o.Status {
	case StatusPlaced:
		r.Placed++
		if o.Converted {
			r.Converted++
		}
	case StatusPlanned:
		r.Placed++
	case StatusDuplicate:
		r.Duplicates++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Finish stamps the end time.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now().UTC()
}

// WriteFile persists the report as JSON under logsDir, named by the
// run's start time. Returns the written path.
func (r *Report) WriteFile(logsDir string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode run report")
	}
	path := filepath.Join(logsDir, fmt.Sprintf("run_%d.json", r.Started.Unix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write run report")
	}
	return path, nil
}

// LogSummary emits the end-of-run summary.
func (r *Report) LogSummary(log *zap.SugaredLogger, dryRun bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.Infow("run complete",
		"total", r.Total,
		"placed", r.Placed,
		"converted", r.Converted,
		"duplicates", r.Duplicates,
		"skipped", r.Skipped,
		"failed", r.Failed,
		"unmatched_metadata", r.UnmatchedMetadata,
		"elapsed", r.Finished.Sub(r.Started).Round(time.Second).String(),
	)
	if dryRun {
		log.Infow("space usage", "note", "dry run, nothing written")
		return
	}
	log.Infow("space usage",
		"input", display.FormatBytes(r.InputBytes),
		"output", display.FormatBytes(r.OutputBytes),
		"delta", display.FormatSavings(r.OutputBytes-r.InputBytes),
	)
}
