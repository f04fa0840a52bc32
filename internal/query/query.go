// Package query implements the view reconstruction query layer (C7): ls,
// ls_dirs, find, count, total_size, get_stats, tree and ad-hoc SQL, all
// answered against the reconstructed logical view of the catalog.
package query

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/polarsignals/filecat/internal/catalog"
)

// Catalog is a read-only handle onto a catalog root. Every operation opens
// and closes its own snapshot-file handles per call (§5: "no catalog-wide
// connection is cached").
type Catalog struct {
	Root string
}

// Open returns a Catalog rooted at root. It does not itself touch disk; the
// root is created lazily by snapshot/consolidate operations, and a missing
// root simply yields an empty view to queries.
func Open(root string) *Catalog {
	return &Catalog{Root: root}
}

// The selective-dedup optimisation of §4.7 falls directly out of
// per-experiment reconstruction: an experiment with no delta files is read
// straight off its base (no ranking needed at all), while one with deltas
// is folded base-then-deltas in lexicographic (creation) order, which is
// equivalent to a ROW_NUMBER()-partition-by-path ORDER BY indexed_at DESC /
// rank=1 scan because delta filenames are monotonic. No experiment ever
// pays for a global multi-file rank when it has no deltas to rank.

func (c *Catalog) experiments() ([]string, error) {
	entries, err := os.ReadDir(c.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// view reconstructs and unions every experiment's current state into one
// path -> record mapping, optionally restricted to a single experiment
// name.
func (c *Catalog) view(onlyExperiment string) (catalog.State, error) {
	names, err := c.experiments()
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}

	merged := catalog.State{}
	for _, name := range names {
		if onlyExperiment != "" && name != onlyExperiment {
			continue
		}
		st, err := catalog.Reconstruct(filepath.Join(c.Root, name))
		if err != nil {
			return nil, fmt.Errorf("reconstruct experiment %s: %w", name, err)
		}
		for path, rec := range st {
			merged[path] = rec
		}
	}
	return merged, nil
}

// rows returns every record in the catalog's reconstructed view, filtering
// to on-disk rows if onDiskOnly is set.
func (c *Catalog) rows(onDiskOnly bool) ([]*catalog.Record, error) {
	st, err := c.view("")
	if err != nil {
		return nil, err
	}
	out := make([]*catalog.Record, 0, len(st))
	for _, r := range st {
		if onDiskOnly && !r.IsOnDisk() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Stats is the result of GetStats.
type Stats struct {
	TotalRows      int
	OnDiskRows     int
	TotalSize      int64
	Experiments    int
	SnapshotFiles  int
}

// GetStats returns the scalar aggregate set named but left unspecified by
// §4.7; it reuses the same selective-dedup scan as Count/TotalSize.
func (c *Catalog) GetStats() (Stats, error) {
	st, err := c.view("")
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.TotalRows = len(st)
	for _, r := range st {
		if r.IsOnDisk() {
			stats.OnDiskRows++
			if r.Size != nil {
				stats.TotalSize += *r.Size
			}
		}
	}

	experiments, err := c.experiments()
	if err != nil {
		return Stats{}, err
	}
	stats.Experiments = len(experiments)
	for _, exp := range experiments {
		files, err := catalog.ListSnapshots(c.Root, exp)
		if err != nil {
			return Stats{}, err
		}
		stats.SnapshotFiles += len(files)
	}

	return stats, nil
}

// Count returns the number of rows in the reconstructed view, optionally
// restricted to on-disk rows (I5: Count() >= Count(onDiskOnly=true) always).
func (c *Catalog) Count(onDiskOnly bool) (int, error) {
	rows, err := c.rows(onDiskOnly)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// TotalSize sums Size over the reconstructed view, optionally restricted to
// on-disk rows. Rows with a nil Size (directories) do not contribute.
func (c *Catalog) TotalSize(onDiskOnly bool) (int64, error) {
	rows, err := c.rows(onDiskOnly)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range rows {
		if r.Size != nil {
			total += *r.Size
		}
	}
	return total, nil
}

// Snapshots lists the on-disk snapshot files, optionally restricted to one
// experiment (backs the `snapshots` CLI verb).
func (c *Catalog) Snapshots(experiment string) ([]catalog.SnapshotInfo, error) {
	return catalog.ListSnapshots(c.Root, experiment)
}

// Ls returns rows whose parent_path equals path exactly, sorted by
// filename (§4.7).
func (c *Catalog) Ls(path string, onDiskOnly bool) ([]*catalog.Record, error) {
	path = strings.TrimSuffix(path, "/")
	rows, err := c.rows(onDiskOnly)
	if err != nil {
		return nil, err
	}

	var out []*catalog.Record
	for _, r := range rows {
		if r.ParentPath == path {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}
