package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/archive"
	"github.com/backmassage/photovault/internal/config"
	"github.com/backmassage/photovault/internal/convert"
	"github.com/backmassage/photovault/internal/dedup"
	"github.com/backmassage/photovault/internal/metadata"
	"github.com/backmassage/photovault/internal/organize"
	"github.com/backmassage/photovault/internal/setup"
	"github.com/backmassage/photovault/internal/timestamp"
)

// Pipeline wires the processing stages together for one run.
type Pipeline struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	layout   organize.Layout
	registry *convert.Registry
	placer   *organize.Placer
	resolver *organize.CollisionResolver

	// index is nil when deduplication is disabled or in dry runs.
	index *dedup.Index

	mu     sync.Mutex
	fatal  error
	cancel context.CancelFunc
	report *Report
}

// New builds a pipeline from validated configuration.
func New(cfg *config.Config, log *zap.SugaredLogger) *Pipeline {
	layout := organize.Layout{Root: cfg.Destination, ByYear: cfg.ByYear}
	return &Pipeline{
		cfg:      cfg,
		log:      log,
		layout:   layout,
		registry: convert.NewRegistry(cfg.Quality),
		placer:   organize.NewPlacer(layout),
		resolver: organize.NewCollisionResolver(),
	}
}

type job struct {
	source archive.Source
	pair   metadata.Pair
}

// Run processes the given archive paths and returns the run report.
// A non-nil error means the run aborted (index failure, unusable
// destination); per-entry failures are recorded in the report instead.
func (p *Pipeline) Run(ctx context.Context, archivePaths []string) (*Report, error) {
	p.report = NewReport()

	if err := setup.Preflight(p.layout, p.cfg.MinFreeGB, p.log); err != nil {
		return p.report, err
	}

	if p.cfg.Dedup && !p.cfg.DryRun {
		ix, err := dedup.OpenIndex(p.layout.IndexPath(), p.log)
		if err != nil {
			return p.report, err
		}
		p.index = ix
		defer ix.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.cancel = cancel

	sources := p.openSources(archivePaths)
	defer func() {
		for _, src := range sources {
			if err := src.Close(); err != nil {
				p.log.Warnw("closing source", "source", src.Name(), "error", err)
			}
		}
	}()

	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue // drain
				}
				p.processOne(ctx, j)
			}
		}()
	}

	for _, src := range sources {
		m := metadata.NewMatcher(src, p.log)
		p.log.Infow("scanning source", "source", src.Name(), "media", m.Remaining())
		for {
			pair, ok := m.Next()
			if !ok {
				break
			}
			select {
			case jobs <- job{source: src, pair: pair}:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	p.report.Finish()
	p.report.LogSummary(p.log, p.cfg.DryRun)

	if !p.cfg.DryRun {
		if path, err := p.report.WriteFile(p.layout.LogsDir()); err != nil {
			p.log.Warnw("could not write run report", "error", err)
		} else {
			p.log.Infow("run report written", "path", path)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fatal != nil {
		return p.report, p.fatal
	}
	if ctx.Err() != nil {
		// Interrupted by the caller; the partial report still stands.
		p.log.Warnw("run interrupted")
	}
	return p.report, nil
}

// openSources opens each archive path, recording failures as report
// entries rather than aborting the run.
func (p *Pipeline) openSources(paths []string) []archive.Source {
	var sources []archive.Source
	for _, path := range paths {
		src, err := archive.OpenSource(path)
		if err != nil {
			p.log.Errorw("cannot open source", "source", path, "error", err)
			p.report.Add(Outcome{
				Source: path,
				Status: StatusFailed,
				Error:  err.Error(),
			}, 0, 0, false)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// abort records the first fatal error and cancels the run.
func (p *Pipeline) abort(err error) {
	p.mu.Lock()
	if p.fatal == nil {
		p.fatal = err
	}
	p.mu.Unlock()
	p.cancel()
}

// processOne takes a matched media entry through the full stage chain:
// stage+hash, timestamp resolution, dedup reservation, conversion,
// and final placement.
func (p *Pipeline) processOne(ctx context.Context, j job) {
	entry := j.pair.Media
	unmatched := j.pair.Record == nil
	if j.pair.Ambiguous {
		p.log.Warnw("ambiguous sidecar candidates, treating as unmatched",
			"source", j.source.Name(), "entry", entry.Name)
	}

	outcome := Outcome{Source: j.source.Name(), Entry: entry.Path}
	kind, _ := archive.MediaKind(entry.Name)

	// Stage the entry's bytes to the temp area, hashing as they pass.
	staged := filepath.Join(p.layout.TempDir(), uuid.NewString())
	inBytes, digest, err := p.stage(j, staged)
	if err != nil {
		os.Remove(staged)
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		p.log.Errorw("staging failed", "entry", entry.Name, "error", err)
		p.report.Add(outcome, 0, 0, unmatched)
		return
	}
	if inBytes == 0 {
		os.Remove(staged)
		outcome.Status = StatusSkipped
		outcome.Error = "empty file"
		p.log.Warnw("skipping empty entry", "source", j.source.Name(), "entry", entry.Name)
		p.report.Add(outcome, 0, 0, unmatched)
		return
	}
	outcome.Digest = digest

	ts, prov := timestamp.Resolve(j.pair.Record, staged, entry.Name, entry.ModTime, p.report.Started)
	outcome.Timestamp = ts.UTC().Format(time.RFC3339)
	outcome.Provenance = string(prov)
	if prov == timestamp.ProvenanceFallback {
		p.log.Warnw("no usable timestamp, using run start",
			"source", j.source.Name(), "entry", entry.Name)
	}

	// The planned path assumes conversion succeeds; a failed conversion
	// reconciles the index afterwards.
	var conv convert.Converter
	targetExt := ""
	if p.cfg.Convert && kind == archive.KindImage {
		if c := p.registry.For(entry.Name); c != nil {
			conv = c
			targetExt = c.TargetExt()
		}
	}
	planned := p.resolver.Resolve(digest, p.layout.MediaPath(kind, ts, entry.Name, targetExt))

	if p.cfg.DryRun {
		os.Remove(staged)
		outcome.Status = StatusPlanned
		outcome.OutputPath = planned
		outcome.Converted = conv != nil
		p.report.Add(outcome, inBytes, 0, unmatched)
		return
	}

	if p.index != nil {
		accepted, existing, err := p.index.Reserve(digest, planned)
		if err != nil {
			os.Remove(staged)
			p.abort(err)
			outcome.Status = StatusFailed
			outcome.Error = err.Error()
			p.report.Add(outcome, inBytes, 0, unmatched)
			return
		}
		if !accepted {
			if err := p.placer.RecordDuplicate(organize.DuplicateRecord{
				Digest:   digest,
				Source:   j.source.Name() + "/" + entry.Path,
				Existing: existing,
				SeenAt:   p.report.Started,
			}); err != nil {
				p.log.Warnw("could not write duplicate record", "entry", entry.Name, "error", err)
			}
			os.Remove(staged)
			outcome.Status = StatusDuplicate
			outcome.OutputPath = existing
			p.log.Infow("duplicate content",
				"source", j.source.Name(), "entry", entry.Name, "existing", existing)
			p.report.Add(outcome, inBytes, 0, unmatched)
			return
		}
	}

	// Convert in place on the staging area. Failure keeps the original
	// bytes; the asset is never lost to a decoder bug.
	converted := false
	if conv != nil && ctx.Err() == nil {
		convPath := staged + ".conv"
		if err := conv.Convert(staged, convPath); err != nil {
			os.Remove(convPath)
			targetExt = ""
			p.log.Warnw("conversion failed, keeping original",
				"entry", entry.Name, "converter", conv.Name(), "error", err)
		} else {
			if p.cfg.PreserveOriginals {
				if err := p.placer.PreserveOriginal(staged, entry.Name, digest); err != nil {
					p.log.Warnw("could not preserve original", "entry", entry.Name, "error", err)
				}
			}
			os.Remove(staged)
			staged = convPath
			converted = true
		}
	}

	final := p.layout.MediaPath(kind, ts, entry.Name, targetExt)
	if final != planned {
		final = p.resolver.Resolve(digest, final)
	} else {
		final = planned
	}

	outBytes := int64(0)
	if fi, err := os.Stat(staged); err == nil {
		outBytes = fi.Size()
	}

	if err := p.placer.Place(staged, final); err != nil {
		os.Remove(staged)
		if p.index != nil {
			if rerr := p.index.Release(digest); rerr != nil {
				p.abort(rerr)
			}
			// A duplicate record written against the rolled-back
			// reservation would name a path that never existed.
			if rerr := p.placer.RemoveDuplicateRecord(digest); rerr != nil {
				p.log.Warnw("could not remove stale duplicate record", "digest", digest, "error", rerr)
			}
		}
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		p.log.Errorw("placement failed", "entry", entry.Name, "error", err)
		p.report.Add(outcome, inBytes, 0, unmatched)
		return
	}

	if p.index != nil && final != planned {
		if err := p.index.UpdatePath(digest, final); err != nil {
			p.abort(err)
		}
	}

	if p.cfg.PreserveMetadata && j.pair.Record != nil {
		if err := p.placer.MirrorSidecar(final, j.pair.Record.Raw); err != nil {
			p.log.Warnw("could not mirror sidecar", "entry", entry.Name, "error", err)
		}
	}

	outcome.Status = StatusPlaced
	outcome.OutputPath = final
	outcome.Converted = converted
	p.log.Infow("placed",
		"source", j.source.Name(),
		"entry", entry.Name,
		"output", final,
		"timestamp_source", prov,
		"converted", converted,
	)
	p.report.Add(outcome, inBytes, outBytes, unmatched)
}

// stage copies an entry's bytes to a staging file while hashing them,
// returning the byte count and content digest.
func (p *Pipeline) stage(j job, staged string) (int64, string, error) {
	rc, err := j.source.Open(j.pair.Media.Path)
	if err != nil {
		return 0, "", errors.Wrap(err, "open entry")
	}
	defer rc.Close()

	f, err := os.Create(staged)
	if err != nil {
		return 0, "", errors.Wrap(err, "create staging file")
	}

	h := dedup.NewHasher()
	n, err := io.Copy(io.MultiWriter(f, h), rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, "", errors.Wrap(err, "stage entry")
	}
	return n, h.Digest(), nil
}
