// Package metrics wires the catalog's ambient prometheus instrumentation,
// following the teacher's db.go pattern of threading a prometheus.Registerer
// through constructors rather than relying on the global default registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Snapshot holds the counters and histogram populated during a snapshot
// operation.
type Snapshot struct {
	FilesScanned     prometheus.Counter
	FilesSkipped     prometheus.Counter
	DirectoriesPruned prometheus.Counter
	SnapshotsWritten prometheus.Counter
	SnapshotDuration prometheus.Histogram
}

// NewSnapshot registers the snapshot-operation metrics with reg. A nil
// Registerer is replaced with a private registry so callers that don't care
// about metrics (tests, one-off CLI runs) never need to guard against a nil
// *Snapshot.
func NewSnapshot(reg prometheus.Registerer) *Snapshot {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Snapshot{
		FilesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filecat_files_scanned_total",
			Help: "Number of files successfully scanned into a record.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filecat_files_skipped_total",
			Help: "Number of files skipped due to a per-file OS error.",
		}),
		DirectoriesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filecat_directories_pruned_total",
			Help: "Number of subtrees pruned due to a per-directory OS error.",
		}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filecat_snapshots_written_total",
			Help: "Number of base or delta snapshot files written.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "filecat_snapshot_duration_seconds",
			Help:    "Wall-clock duration of a full snapshot operation.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(s.FilesScanned, s.FilesSkipped, s.DirectoriesPruned, s.SnapshotsWritten, s.SnapshotDuration)
	return s
}
