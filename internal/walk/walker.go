// Package walk implements the parallel filesystem walker (C3): it emits
// every regular-file path under a root, optionally fanning directory scans
// out across a worker pool.
package walk

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options configures a Walk call.
type Options struct {
	Workers int // <=1 means deterministic depth-first

	// OnPrune, if set, is called whenever a directory-level OS error causes
	// a subtree to be silently pruned (§4.3, §7). It must be safe to call
	// concurrently.
	OnPrune func(dir string, err error)
}

// Walk emits every regular-file path (including symlinks, which are
// recorded but never descended) under root on the returned channel. The
// channel is closed when the walk completes or the context is cancelled.
// Directory-level OS errors silently prune that subtree (§4.3, §7).
//
// workers <= 1 performs a deterministic depth-first walk. workers > 1 uses a
// breadth-first frontier: each round dequeues up to 2*workers directories
// and scans them concurrently, batching discovered files onto the output
// channel as each directory finishes. Ordering between the two modes is not
// guaranteed (§4.3).
func Walk(ctx context.Context, root string, workers int) <-chan string {
	return WalkWithOptions(ctx, root, Options{Workers: workers})
}

// WalkWithOptions is Walk with pruning observability.
func WalkWithOptions(ctx context.Context, root string, opts Options) <-chan string {
	out := make(chan string, 1024)
	go func() {
		defer close(out)
		if opts.Workers <= 1 {
			walkSequential(ctx, root, out, opts.OnPrune)
			return
		}
		walkFrontier(ctx, root, opts.Workers, out, opts.OnPrune)
	}()
	return out
}

func walkSequential(ctx context.Context, root string, out chan<- string, onPrune func(string, error)) {
	entries, err := readSortedDir(root)
	if err != nil {
		if onPrune != nil {
			onPrune(root, err)
		}
		return // directory-level error: prune this subtree
	}

	for _, e := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		path := filepath.Join(root, e.Name())
		if entryIsDir(e) {
			walkSequential(ctx, path, out, onPrune)
			continue
		}
		select {
		case out <- path:
		case <-ctx.Done():
			return
		}
	}
}

// walkFrontier implements the breadth-first frontier mode: a shared queue of
// pending directories, drained in rounds of up to 2*workers concurrent
// directory scans. Each round's pool is drained before the next round
// starts, and the channel is closed only after the last round. Files are
// sent on the channel while the rounds run, so a consumer (such as C2's scan
// phase in internal/ingest) processes them while the walk is still in
// progress; it sees the complete set only once the channel is closed.
func walkFrontier(ctx context.Context, root string, workers int, out chan<- string, onPrune func(string, error)) {
	batchSize := 2 * workers

	var mu sync.Mutex
	frontier := []string{root}

	for len(frontier) > 0 {
		select {
		case <-ctx.Done():
			return
		default:
		}

		mu.Lock()
		n := len(frontier)
		if n > batchSize {
			n = batchSize
		}
		round := append([]string(nil), frontier[:n]...)
		frontier = frontier[n:]
		mu.Unlock()

		var nextMu sync.Mutex
		var next []string

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, dir := range round {
			dir := dir
			g.Go(func() error {
				entries, err := readSortedDir(dir)
				if err != nil {
					if onPrune != nil {
						onPrune(dir, err)
					}
					return nil // directory-level error: prune this subtree
				}

				var files []string
				var subdirs []string
				for _, e := range entries {
					path := filepath.Join(dir, e.Name())
					if entryIsDir(e) {
						subdirs = append(subdirs, path)
					} else {
						files = append(files, path)
					}
				}

				if len(subdirs) > 0 {
					nextMu.Lock()
					next = append(next, subdirs...)
					nextMu.Unlock()
				}

				for _, f := range files {
					select {
					case out <- f:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
				return nil
			})
		}
		_ = g.Wait()

		mu.Lock()
		frontier = append(frontier, next...)
		mu.Unlock()
	}
}

func entryIsDir(e os.DirEntry) bool {
	// A directory entry that is itself a symlink must be treated as a file
	// entry (symlinks are yielded, never descended, per §4.3), even if it
	// points at a directory.
	if e.Type()&os.ModeSymlink != 0 {
		return false
	}
	return e.IsDir()
}

func readSortedDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}
