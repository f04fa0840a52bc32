package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	baseSnapshotPrefix  = "base_"
	deltaSnapshotPrefix = "delta_"
	snapshotExt         = ".parquet"
	tmpSuffix           = ".tmp"

	// timestampLayout must sort lexicographically the same way it sorts
	// temporally: YYYY-MM-DDThhmmss.ffffff.
	timestampLayout = "2006-01-02T150405.000000"
)

// FormatTimestamp renders t using the catalog's sortable snapshot timestamp
// format (§6).
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ExperimentDir returns the name of the experiment directory for the given
// user-supplied experiment label (used verbatim) or, if absent, the first 8
// hex characters of the MD5 hash of the resolved root path (§6).
func ExperimentDir(resolvedRoot, experiment string) string {
	if experiment != "" {
		return experiment
	}
	sum := md5.Sum([]byte(resolvedRoot))
	return hex.EncodeToString(sum[:])[:8]
}

// BaseFileName returns the filename of a base snapshot created at ts.
func BaseFileName(ts string) string {
	return baseSnapshotPrefix + ts + snapshotExt
}

// DeltaFileName returns the filename of a delta snapshot created at ts.
func DeltaFileName(ts string) string {
	return deltaSnapshotPrefix + ts + snapshotExt
}

// IsBaseFile reports whether name is a base snapshot filename.
func IsBaseFile(name string) bool {
	return strings.HasPrefix(name, baseSnapshotPrefix) && strings.HasSuffix(name, snapshotExt)
}

// IsDeltaFile reports whether name is a delta snapshot filename.
func IsDeltaFile(name string) bool {
	return strings.HasPrefix(name, deltaSnapshotPrefix) && strings.HasSuffix(name, snapshotExt)
}

// timestampOf extracts the timestamp component shared by base/delta names,
// e.g. "base_2024-01-02T030405.000000.parquet" -> "2024-01-02T030405.000000".
func timestampOf(name string) string {
	name = strings.TrimSuffix(name, snapshotExt)
	name = strings.TrimPrefix(name, baseSnapshotPrefix)
	name = strings.TrimPrefix(name, deltaSnapshotPrefix)
	return name
}

// tempName returns a sibling temp filename for name, using a distinct suffix
// plus a random component so that two aborted concurrent writers never
// collide (§4.4, §5 "Cancellation / timeout").
func tempName(name, random string) string {
	return name + "." + random + tmpSuffix
}

// SnapshotFile describes one file discovered inside an experiment directory.
type SnapshotFile struct {
	Name   string // base filename, e.g. "base_2024-01-02T030405.000000.parquet"
	Path   string // absolute path
	IsBase bool
}

// HasBase reports whether experimentDir already contains an applicable base
// file. A missing directory is treated as "no base" rather than an error,
// since the first snapshot of a fresh experiment creates the directory.
func HasBase(experimentDir string) bool {
	files, err := listSnapshotFiles(experimentDir)
	if err != nil {
		return false
	}
	base, _ := currentBase(files)
	return base != nil
}

// ListSnapshots lists every snapshot file under root, across all experiment
// directories (or just the one named by experiment, if non-empty), sorted
// by experiment then filename. It backs the supplemented `snapshots` CLI
// operation (SPEC_FULL.md).
func ListSnapshots(root, experiment string) ([]SnapshotInfo, error) {
	var experiments []string
	if experiment != "" {
		experiments = []string{experiment}
	} else {
		var err error
		experiments, err = experimentDirs(root)
		if err != nil {
			return nil, err
		}
		sort.Strings(experiments)
	}

	var out []SnapshotInfo
	for _, exp := range experiments {
		files, err := listSnapshotFiles(filepath.Join(root, exp))
		if err != nil {
			continue
		}
		for _, f := range files {
			kind := "delta"
			if f.IsBase {
				kind = "base"
			}
			out = append(out, SnapshotInfo{
				Experiment: exp,
				Kind:       kind,
				Timestamp:  timestampOf(f.Name),
				Path:       f.Path,
			})
		}
	}
	return out, nil
}

// SnapshotInfo is one row of the `snapshots` listing.
type SnapshotInfo struct {
	Experiment string
	Kind       string
	Timestamp  string
	Path       string
}

// listSnapshotFiles lists the base_*/delta_* files of an experiment
// directory, sorted lexicographically by filename (creation order, I2).
// Any other file (including leftover .tmp files) is ignored.
func listSnapshotFiles(dir string) ([]SnapshotFile, error) {
	entries, err := readDirNames(dir)
	if err != nil {
		return nil, err
	}

	var files []SnapshotFile
	for _, name := range entries {
		switch {
		case IsBaseFile(name):
			files = append(files, SnapshotFile{Name: name, Path: filepath.Join(dir, name), IsBase: true})
		case IsDeltaFile(name):
			files = append(files, SnapshotFile{Name: name, Path: filepath.Join(dir, name), IsBase: false})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// currentBase returns the lexicographically greatest base file, if any, and
// the deltas that are applicable to it (those whose timestamp sorts after
// the base's timestamp, per §4.5 step 3).
func currentBase(files []SnapshotFile) (base *SnapshotFile, deltas []SnapshotFile) {
	for i := len(files) - 1; i >= 0; i-- {
		if files[i].IsBase {
			b := files[i]
			base = &b
			break
		}
	}
	if base == nil {
		return nil, nil
	}

	baseTs := timestampOf(base.Name)
	for _, f := range files {
		if f.IsBase {
			continue
		}
		if timestampOf(f.Name) > baseTs {
			deltas = append(deltas, f)
		}
	}
	return base, deltas
}
