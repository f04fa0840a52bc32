package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"
)

func TestConsolidateMergesBaseAndDeltasIntoOneBase(t *testing.T) {
	root := t.TempDir()
	expDir := filepath.Join(root, "exp1")
	clock := NewClock()

	_, err := WriteBase(expDir, []Record{
		{Path: "/a", ParentPath: "/", Filename: "a", IndexedAt: "t0", OnDisk: boolPtr(true)},
		{Path: "/b", ParentPath: "/", Filename: "b", IndexedAt: "t0", OnDisk: boolPtr(true)},
	}, clock.Now(), log.NewNopLogger())
	require.NoError(t, err)

	removed := StatusRemoved
	_, err = WriteDelta(expDir, []Record{
		{Path: "/b", ParentPath: "/", Filename: "b", IndexedAt: "t1", Status: &removed},
	}, clock.Now(), log.NewNopLogger())
	require.NoError(t, err)

	before, err := Reconstruct(expDir)
	require.NoError(t, err)

	result, err := Consolidate(root, "", clock, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, 1, result.ExperimentsTouched)
	require.Equal(t, 2, result.FilesRemoved)
	require.Equal(t, 0, result.FilesArchived)

	entries, err := os.ReadDir(expDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, IsBaseFile(entries[0].Name()))

	after, err := Reconstruct(expDir)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))
	for path, rec := range before {
		require.Equal(t, rec.IsOnDisk(), after[path].IsOnDisk())
	}
}

func TestConsolidateSkipsSingleFileExperiments(t *testing.T) {
	root := t.TempDir()
	expDir := filepath.Join(root, "exp1")
	clock := NewClock()

	_, err := WriteBase(expDir, []Record{
		{Path: "/a", ParentPath: "/", Filename: "a", IndexedAt: "t0", OnDisk: boolPtr(true)},
	}, clock.Now(), log.NewNopLogger())
	require.NoError(t, err)

	result, err := Consolidate(root, "", clock, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, 0, result.ExperimentsTouched)

	entries, err := os.ReadDir(expDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestConsolidateArchivesInsteadOfDeleting(t *testing.T) {
	root := t.TempDir()
	archive := t.TempDir()
	expDir := filepath.Join(root, "exp1")
	clock := NewClock()

	_, err := WriteBase(expDir, []Record{
		{Path: "/a", ParentPath: "/", Filename: "a", IndexedAt: "t0", OnDisk: boolPtr(true)},
	}, clock.Now(), log.NewNopLogger())
	require.NoError(t, err)
	status := StatusAdded
	_, err = WriteDelta(expDir, []Record{
		{Path: "/c", ParentPath: "/", Filename: "c", IndexedAt: "t1", Status: &status},
	}, clock.Now(), log.NewNopLogger())
	require.NoError(t, err)

	result, err := Consolidate(root, archive, clock, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesArchived)
	require.Equal(t, 0, result.FilesRemoved)

	archived, err := os.ReadDir(filepath.Join(archive, "exp1"))
	require.NoError(t, err)
	require.Len(t, archived, 2)
}
