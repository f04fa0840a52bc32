// Package ingest orchestrates a single snapshot operation: it drives the
// parallel walker (C3) and file scanner (C2), accumulates the freshly
// observed state, reconstructs the previous state (C5), computes the delta
// against it (C6), and writes a base or delta snapshot file (C4).
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/polarsignals/filecat/internal/catalog"
	"github.com/polarsignals/filecat/internal/metrics"
	"github.com/polarsignals/filecat/internal/scan"
	"github.com/polarsignals/filecat/internal/walk"
)

// defaultBatchSize matches the CLI's default --batch-size (§6).
const defaultBatchSize = 1024

// Options configures a snapshot operation.
type Options struct {
	Root            string // directory to walk; will be resolved to an absolute path
	CatalogRoot     string // catalog root directory holding experiment directories
	Experiment      string // user-assigned label; empty means "derive from root's MD5"
	ComputeChecksum bool
	Workers         int // walker/scanner concurrency; <=0 means 1
	BatchSize       int // scan-phase chunk sizing input; <=0 means defaultBatchSize
	Clock           *catalog.Clock
	Logger          log.Logger
	Metrics         *metrics.Snapshot // nil is valid; no metrics are recorded
}

// Result is what a snapshot operation reports to its caller (§4.6, §7:
// "Partial success for snapshots is expressed in the returned triple").
type Result struct {
	Added, Modified, Removed int
	WrittenPath              string // empty if no file was written
}

// Snapshot performs one full snapshot cycle against opts.Root.
func Snapshot(ctx context.Context, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	clock := opts.Clock
	if clock == nil {
		clock = catalog.NewClock()
	}

	if opts.Metrics != nil {
		timer := prometheus.NewTimer(opts.Metrics.SnapshotDuration)
		defer timer.ObserveDuration()
	}

	resolvedRoot, err := filepath.Abs(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve root: %w", err)
	}
	if err := os.MkdirAll(opts.CatalogRoot, 0o755); err != nil {
		return Result{}, fmt.Errorf("create catalog root: %w", err)
	}

	indexedAt := clock.Now()
	expDirName := catalog.ExperimentDir(resolvedRoot, opts.Experiment)

	current, err := walkAndScan(ctx, resolvedRoot, workers, batchSize, scan.Options{
		ComputeChecksum: opts.ComputeChecksum,
		Experiment:      opts.Experiment,
		IndexedAt:       indexedAt,
	}, logger, opts.Metrics)
	if err != nil {
		return Result{}, err
	}

	expDir := filepath.Join(opts.CatalogRoot, expDirName)

	hasBase := catalog.HasBase(expDir)

	previous, err := catalog.Reconstruct(expDir)
	if err != nil {
		return Result{}, fmt.Errorf("reconstruct previous state: %w", err)
	}

	if !hasBase {
		rows := make([]catalog.Record, 0, len(current))
		for _, r := range current {
			r.OnDisk = boolPtr(true)
			rows = append(rows, *r)
		}
		wr, err := catalog.WriteBase(expDir, rows, indexedAt, logger)
		if err != nil {
			return Result{}, err
		}
		if opts.Metrics != nil && wr.Written {
			opts.Metrics.SnapshotsWritten.Inc()
		}
		level.Debug(logger).Log("msg", "wrote base snapshot", "experiment", expDirName, "rows", len(rows))
		return Result{Added: len(rows), WrittenPath: wr.Path}, nil
	}

	deltaRows, counts := catalog.ComputeDelta(current, previous, indexedAt)
	if counts.Empty() {
		level.Debug(logger).Log("msg", "no changes detected", "experiment", expDirName)
		return Result{}, nil
	}

	wr, err := catalog.WriteDelta(expDir, deltaRows, indexedAt, logger)
	if err != nil {
		return Result{}, err
	}
	if opts.Metrics != nil && wr.Written {
		opts.Metrics.SnapshotsWritten.Inc()
	}
	return Result{Added: counts.Added, Modified: counts.Modified, Removed: counts.Removed, WrittenPath: wr.Path}, nil
}

func boolPtr(b bool) *bool { return &b }

// walkAndScan drives C3 over root and feeds every discovered path through
// C2, using a worker-pool sized scan phase that only begins consuming once
// the walker is producing (the two pools never overlap in purpose, though
// in Go's unified goroutine runtime there's no process/thread split to
// enforce -- §9's design note licenses collapsing that distinction).
func walkAndScan(ctx context.Context, root string, workers, batchSize int, scanOpts scan.Options, logger log.Logger, m *metrics.Snapshot) (catalog.State, error) {
	paths := walk.WalkWithOptions(ctx, root, walk.Options{
		Workers: workers,
		OnPrune: func(dir string, err error) {
			level.Debug(logger).Log("msg", "pruned subtree", "dir", dir, "error", err)
			if m != nil {
				m.DirectoriesPruned.Inc()
			}
		},
	})

	chunkSize := batchSize / (workers * 4)
	if chunkSize < 1 {
		chunkSize = 1
	}

	var mu sync.Mutex
	state := catalog.State{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunk := make([]string, 0, chunkSize)
	flush := func(batch []string) {
		g.Go(func() error {
			for _, p := range batch {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				rec, err := scan.Scan(p, scanOpts)
				if err != nil {
					return err
				}
				if rec == nil {
					level.Debug(logger).Log("msg", "skipped path", "path", p)
					if m != nil {
						m.FilesSkipped.Inc()
					}
					continue
				}
				if m != nil {
					m.FilesScanned.Inc()
				}
				mu.Lock()
				state[rec.Path] = rec
				mu.Unlock()
			}
			return nil
		})
	}

loop:
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				break loop
			}
			chunk = append(chunk, p)
			if len(chunk) >= chunkSize {
				flush(chunk)
				chunk = make([]string, 0, chunkSize)
			}
		case <-gctx.Done():
			break loop
		}
	}
	if len(chunk) > 0 {
		flush(chunk)
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan phase: %w", err)
	}
	return state, nil
}
