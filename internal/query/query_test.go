package query

import (
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/polarsignals/filecat/internal/catalog"
)

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

// seedExperiment writes a single base snapshot describing a small tree
// rooted at "/root/scratch" with two run directories.
func seedExperiment(t *testing.T, catRoot, experiment string) {
	t.Helper()
	rows := []catalog.Record{
		mkRow("/root/scratch/run0001/a.h5", "a.h5", "/root/scratch/run0001", 1024),
		mkRow("/root/scratch/run0001/b.h5", "b.h5", "/root/scratch/run0001", 1024),
		mkRow("/root/scratch/run0001/c.h5", "c.h5", "/root/scratch/run0001", 1124),
		mkRow("/root/scratch/run0002/d.h5", "d.h5", "/root/scratch/run0002", 512),
		mkRow("/root/scratch/image_0001.h5", "image_0001.h5", "/root/scratch", 1024),
		mkRow("/root/scratch/image_0002.h5", "image_0002.h5", "/root/scratch", 2048),
	}
	_, err := catalog.WriteBase(filepath.Join(catRoot, experiment), rows, "2024-01-01T000000.000000", log.NewNopLogger())
	require.NoError(t, err)
}

// seedExperimentUnderPrefix is seedExperiment but with every path namespaced
// under prefix, so that two experiments seeded this way never collide on
// path identity when their states are merged into one cross-experiment view.
func seedExperimentUnderPrefix(t *testing.T, catRoot, experiment, prefix string) {
	t.Helper()
	rows := []catalog.Record{
		mkRow(prefix+"/run0001/a.h5", "a.h5", prefix+"/run0001", 1024),
		mkRow(prefix+"/run0001/b.h5", "b.h5", prefix+"/run0001", 1024),
		mkRow(prefix+"/run0001/c.h5", "c.h5", prefix+"/run0001", 1124),
		mkRow(prefix+"/run0002/d.h5", "d.h5", prefix+"/run0002", 512),
		mkRow(prefix+"/image_0001.h5", "image_0001.h5", prefix, 1024),
		mkRow(prefix+"/image_0002.h5", "image_0002.h5", prefix, 2048),
	}
	_, err := catalog.WriteBase(filepath.Join(catRoot, experiment), rows, "2024-01-01T000000.000000", log.NewNopLogger())
	require.NoError(t, err)
}

func mkRow(path, filename, parent string, size int64) catalog.Record {
	return catalog.Record{
		Path: path, ParentPath: parent, Filename: filename, Size: int64Ptr(size),
		IndexedAt: "2024-01-01T000000.000000", OnDisk: boolPtr(true),
	}
}

func TestLsReturnsExactChildrenSortedByFilename(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	rows, err := cat.Ls("/root/scratch/run0001", false)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"a.h5", "b.h5", "c.h5"}, []string{rows[0].Filename, rows[1].Filename, rows[2].Filename})
}

func TestLsDirsAggregatesImmediateChildren(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	dirs, err := cat.LsDirs("/root/scratch", false)
	require.NoError(t, err)
	require.Equal(t, []DirAgg{
		{Name: "run0001", FileCount: 3, TotalSize: 3172},
		{Name: "run0002", FileCount: 1, TotalSize: 512},
	}, dirs)
}

func TestFindMatchesPatternAndSizePredicate(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	rows, err := cat.Find(FindOptions{Pattern: "%image_%", SizeGt: int64Ptr(1000)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "/root/scratch/image_0001.h5", rows[0].Path)
	require.Equal(t, "/root/scratch/image_0002.h5", rows[1].Path)
}

func TestFindExcludeAppliesNotLikeConjunction(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	rows, err := cat.Find(FindOptions{Pattern: "%", Exclude: []string{"%run0001%"}})
	require.NoError(t, err)
	for _, r := range rows {
		require.NotContains(t, r.Path, "run0001")
	}
	require.Len(t, rows, 3)
}

func TestFindRemovedOnlyReturnsPreviouslyRemovedRows(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	removed := catalog.StatusRemoved
	_, err := catalog.WriteDelta(filepath.Join(root, "exp1"), []catalog.Record{
		{Path: "/root/scratch/run0002/d.h5", ParentPath: "/root/scratch/run0002", Filename: "d.h5", IndexedAt: "t1", Status: &removed},
	}, "2024-01-01T000100.000000", log.NewNopLogger())
	require.NoError(t, err)

	cat := Open(root)
	rows, err := cat.Find(FindOptions{Pattern: "%", RemovedOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "/root/scratch/run0002/d.h5", rows[0].Path)
	require.False(t, rows[0].IsOnDisk())
}

func TestFindSkipSymlinksFiltersOnFileTypeBits(t *testing.T) {
	root := t.TempDir()
	rows := []catalog.Record{
		{Path: "/a/regular", ParentPath: "/a", Filename: "regular", Permissions: 0o100644, IndexedAt: "t", OnDisk: boolPtr(true)},
		{Path: "/a/link", ParentPath: "/a", Filename: "link", Permissions: 0o120777, IndexedAt: "t", OnDisk: boolPtr(true)},
	}
	_, err := catalog.WriteBase(filepath.Join(root, "exp1"), rows, "2024-01-01T000000.000000", log.NewNopLogger())
	require.NoError(t, err)

	cat := Open(root)
	got, err := cat.Find(FindOptions{Pattern: "%", SkipSymlinks: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "/a/regular", got[0].Path)
}

func TestCountAndTotalSizeOnDiskFilter(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	removed := catalog.StatusRemoved
	_, err := catalog.WriteDelta(filepath.Join(root, "exp1"), []catalog.Record{
		{Path: "/root/scratch/run0002/d.h5", ParentPath: "/root/scratch/run0002", Filename: "d.h5", IndexedAt: "t1", Status: &removed},
	}, "2024-01-01T000100.000000", log.NewNopLogger())
	require.NoError(t, err)

	cat := Open(root)
	total, err := cat.Count(false)
	require.NoError(t, err)
	require.Equal(t, 6, total)

	onDisk, err := cat.Count(true)
	require.NoError(t, err)
	require.Equal(t, 5, onDisk)
	require.GreaterOrEqual(t, total, onDisk)

	sizeAll, err := cat.TotalSize(false)
	require.NoError(t, err)
	sizeOnDisk, err := cat.TotalSize(true)
	require.NoError(t, err)
	require.Equal(t, sizeAll-512, sizeOnDisk)
}

func TestGetStatsAggregatesAcrossExperiments(t *testing.T) {
	root := t.TempDir()
	seedExperimentUnderPrefix(t, root, "exp1", "/root/scratch1")
	seedExperimentUnderPrefix(t, root, "exp2", "/root/scratch2")

	cat := Open(root)
	stats, err := cat.GetStats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Experiments)
	require.Equal(t, 2, stats.SnapshotFiles)
	require.Equal(t, 12, stats.TotalRows)
	require.Equal(t, 12, stats.OnDiskRows)
}

func TestTreeRendersBoxDrawingConnectors(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	out, err := cat.Tree("/root/scratch", 3)
	require.NoError(t, err)
	require.Contains(t, out, "run0001/")
	require.Contains(t, out, "└──")
	require.Contains(t, out, "image_0001.h5")
}

func TestQuerySQLSelectsOverFilesTable(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	result, err := cat.Query("SELECT COUNT(*) FROM files WHERE size > 1000")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, int64(5), result.Rows[0][0])
}

func TestSnapshotsListsFilesAcrossExperiments(t *testing.T) {
	root := t.TempDir()
	seedExperiment(t, root, "exp1")

	cat := Open(root)
	snaps, err := cat.Snapshots("")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, "exp1", snaps[0].Experiment)
	require.Equal(t, "base", snaps[0].Kind)
}
