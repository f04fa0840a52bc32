package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// WriteResult reports what a write operation did.
type WriteResult struct {
	Path    string // empty if no file was written (e.g. empty delta)
	Written bool
}

// writeSnapshotFile atomically writes rows to finalPath: it first writes to
// a sibling temp file, syncs it, then renames it into place (§4.4). A
// partially written file is never observable under finalPath; on any
// failure the temp file is removed and the error is surfaced to the caller
// (§7 SnapshotWriteIO).
func writeSnapshotFile(dir, finalName string, rows []Record, logger log.Logger) (WriteResult, error) {
	if len(rows) == 0 {
		return WriteResult{}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create experiment directory: %w", err)
	}

	finalPath := filepath.Join(dir, finalName)
	tmpPath := filepath.Join(dir, tempName(finalName, uuid.NewString()))

	if err := writeParquetFile(tmpPath, rows); err != nil {
		_ = os.Remove(tmpPath)
		return WriteResult{}, fmt.Errorf("write snapshot %s: %w", finalName, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return WriteResult{}, fmt.Errorf("rename snapshot %s into place: %w", finalName, err)
	}

	level.Debug(logger).Log("msg", "wrote snapshot", "path", finalPath, "rows", len(rows))
	return WriteResult{Path: finalPath, Written: true}, nil
}

func writeParquetFile(path string, rows []Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()

	w := parquet.NewGenericWriter[Record](f, Schema)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return f.Sync()
}

// WriteBase writes a base snapshot for an experiment. Called when no
// applicable base exists for the experiment directory, or by the
// consolidator. Empty input writes no file.
func WriteBase(experimentDir string, rows []Record, ts string, logger log.Logger) (WriteResult, error) {
	return writeSnapshotFile(experimentDir, BaseFileName(ts), rows, logger)
}

// WriteDelta writes a delta snapshot for an experiment. Called only when an
// applicable base exists. Empty change-sets write no file (§4.6, §7
// NoChanges).
func WriteDelta(experimentDir string, rows []Record, ts string, logger log.Logger) (WriteResult, error) {
	return writeSnapshotFile(experimentDir, DeltaFileName(ts), rows, logger)
}

func readParquetFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot file %s: %w", path, err)
	}

	rows := make([]Record, pf.NumRows())
	r := parquet.NewGenericReader[Record](f, Schema)
	defer r.Close()
	n, err := r.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("corrupt snapshot file %s: %w", path, err)
	}
	return rows[:n], nil
}
