package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/polarsignals/filecat/internal/catalog"
	"github.com/polarsignals/filecat/internal/query"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

// TestSnapshotScenario runs the concrete scenario described in §8 of the
// catalog specification end to end: first snapshot, a deletion, a
// restoration, then consolidation.
func TestSnapshotScenario(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	catRoot := t.TempDir()
	clock := catalog.NewClock()

	sizes := []int{100, 128, 256, 512, 1024, 2048}
	for i, s := range sizes {
		writeFile(t, filepath.Join(root, "file"+string(rune('0'+i))), s)
	}

	opts := func() Options {
		return Options{Root: root, CatalogRoot: catRoot, Experiment: "exp1", Workers: 2, Clock: clock}
	}

	result, err := Snapshot(ctx, opts())
	require.NoError(t, err)
	require.Equal(t, 6, result.Added)
	require.Zero(t, result.Modified)
	require.Zero(t, result.Removed)
	require.NotEmpty(t, result.WrittenPath)

	cat := query.Open(catRoot)
	count, err := cat.Count(false)
	require.NoError(t, err)
	require.Equal(t, 6, count)

	total, err := cat.TotalSize(false)
	require.NoError(t, err)
	require.Equal(t, int64(4068), total)

	// Scenario 2: delete the 100-byte file and snapshot again.
	require.NoError(t, os.Remove(filepath.Join(root, "file0")))
	result, err = Snapshot(ctx, opts())
	require.NoError(t, err)
	require.Zero(t, result.Added)
	require.Zero(t, result.Modified)
	require.Equal(t, 1, result.Removed)
	require.NotEmpty(t, result.WrittenPath)

	count, err = cat.Count(false)
	require.NoError(t, err)
	require.Equal(t, 6, count)

	onDiskCount, err := cat.Count(true)
	require.NoError(t, err)
	require.Equal(t, 5, onDiskCount)

	onDiskSize, err := cat.TotalSize(true)
	require.NoError(t, err)
	require.Equal(t, int64(3968), onDiskSize)

	// Scenario 3: recreate the file at the same path (a restoration).
	writeFile(t, filepath.Join(root, "file0"), 100)
	result, err = Snapshot(ctx, opts())
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)
	require.Zero(t, result.Modified)
	require.Zero(t, result.Removed)
	require.NotEmpty(t, result.WrittenPath)

	onDiskCount, err = cat.Count(true)
	require.NoError(t, err)
	require.Equal(t, 6, onDiskCount)

	// Scenario 4: consolidate leaves exactly one base per experiment whose
	// record set equals the current reconstructed state.
	before, err := cat.Count(false)
	require.NoError(t, err)

	consResult, err := catalog.Consolidate(catRoot, "", clock, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, 1, consResult.ExperimentsTouched)

	entries, err := os.ReadDir(filepath.Join(catRoot, "exp1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	after, err := cat.Count(false)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestSnapshotUnchangedTreeReportsNoChanges(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	catRoot := t.TempDir()
	clock := catalog.NewClock()
	writeFile(t, filepath.Join(root, "a.txt"), 10)

	opts := Options{Root: root, CatalogRoot: catRoot, Experiment: "exp1", Workers: 1, Clock: clock}
	_, err := Snapshot(ctx, opts)
	require.NoError(t, err)

	result, err := Snapshot(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, Result{}, result)

	entries, err := os.ReadDir(filepath.Join(catRoot, "exp1"))
	require.NoError(t, err)
	require.Len(t, entries, 1) // still just the base, no empty delta written
}

func TestSnapshotWithoutExperimentDerivesMD5PrefixDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	catRoot := t.TempDir()

	writeFile(t, filepath.Join(root, "a.txt"), 10)
	_, err := Snapshot(ctx, Options{Root: root, CatalogRoot: catRoot, Workers: 1, Clock: catalog.NewClock()})
	require.NoError(t, err)

	resolved, err := filepath.Abs(root)
	require.NoError(t, err)
	expected := catalog.ExperimentDir(resolved, "")

	_, err = os.Stat(filepath.Join(catRoot, expected))
	require.NoError(t, err)
}
