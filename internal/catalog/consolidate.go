package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ConsolidateResult reports what Consolidate did across a catalog root.
type ConsolidateResult struct {
	ExperimentsTouched int
	FilesRemoved       int
	FilesArchived      int
}

// Consolidate rewrites every experiment directory under root that holds
// more than one snapshot file into a single new base, then disposes of the
// old files: deleted, or moved under archiveDir/<experiment>/ if archiveDir
// is non-empty (§4.8).
//
// The new base lands via the usual temp+rename write before any old file is
// touched, so a crash between write and cleanup leaves a correct, merely
// untidy directory: the next reconstruction simply picks the new base.
func Consolidate(root, archiveDir string, clock *Clock, logger log.Logger) (ConsolidateResult, error) {
	var result ConsolidateResult

	experiments, err := experimentDirs(root)
	if err != nil {
		return result, fmt.Errorf("list experiment directories: %w", err)
	}

	for _, exp := range experiments {
		expDir := filepath.Join(root, exp)
		files, err := listSnapshotFiles(expDir)
		if err != nil {
			return result, fmt.Errorf("list snapshot files for %s: %w", exp, err)
		}
		if len(files) <= 1 {
			continue
		}

		state, err := Reconstruct(expDir)
		if err != nil {
			return result, fmt.Errorf("reconstruct %s: %w", exp, err)
		}

		rows := make([]Record, 0, len(state))
		for _, r := range state {
			rows = append(rows, *r)
		}

		ts := clock.Now()
		if _, err := WriteBase(expDir, rows, ts, logger); err != nil {
			return result, fmt.Errorf("write consolidated base for %s: %w", exp, err)
		}

		for _, f := range files {
			if archiveDir != "" {
				dest := filepath.Join(archiveDir, exp, f.Name)
				if err := moveFile(f.Path, dest); err != nil {
					return result, fmt.Errorf("archive %s: %w", f.Path, err)
				}
				result.FilesArchived++
			} else {
				if err := os.Remove(f.Path); err != nil {
					return result, fmt.Errorf("remove %s: %w", f.Path, err)
				}
				result.FilesRemoved++
			}
		}

		level.Debug(logger).Log("msg", "consolidated experiment", "experiment", exp, "rows", len(rows), "old_files", len(files))
		result.ExperimentsTouched++
	}

	return result, nil
}

func experimentDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// moveFile renames src to dest, falling back to copy+remove when the rename
// fails (e.g. across filesystem boundaries), matching the defensive
// file-move idiom common to the pack's maintenance tooling.
func moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := copyAndSync(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
