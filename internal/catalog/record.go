// Package catalog implements the snapshot/delta storage engine: the fixed
// columnar schema (C1), the atomic snapshot writer (C4), the state
// reconstructor (C5), the delta computer (C6) and the consolidator (C8).
package catalog

import "github.com/parquet-go/parquet-go"

// Record is the canonical row of the catalog, shared by every base and delta
// snapshot file. Exactly one of OnDisk/Status is non-nil in any given row
// (invariant I1 of the schema).
type Record struct {
	Path        string  `parquet:"path"`
	ParentPath  string  `parquet:"parent_path"`
	Filename    string  `parquet:"filename"`
	Size        *int64  `parquet:"size,optional"`
	Mtime       *int64  `parquet:"mtime,optional"`
	Owner       string  `parquet:"owner"`
	GroupName   string  `parquet:"group_name"`
	Permissions int32   `parquet:"permissions"`
	Checksum    *string `parquet:"checksum,optional"`
	Experiment  *string `parquet:"experiment,optional"`
	Run         *int32  `parquet:"run,optional"`
	IndexedAt   string  `parquet:"indexed_at"`
	OnDisk      *bool   `parquet:"on_disk,optional"`
	Status      *string `parquet:"status,optional"`
}

// Status values for delta rows. Base rows leave Status empty and set OnDisk
// instead.
const (
	StatusAdded    = "added"
	StatusModified = "modified"
	StatusRemoved  = "removed"
)

// Schema is the single fixed schema shared by every snapshot file. Column
// order matches §3 of the catalog specification; writers always emit every
// column, using the zero value where the base/delta discriminator makes a
// field inapplicable.
var Schema = parquet.SchemaOf(&Record{})

// IsBase reports whether r is a base-snapshot row (OnDisk set, Status empty).
func (r *Record) IsBase() bool {
	return r.OnDisk != nil
}

// IsOnDisk returns the row's effective on-disk flag, applying the fallback
// rules of §4.7 step 3: a base row's own OnDisk value if present, otherwise
// derived from Status (removed => false, anything else => true).
func (r *Record) IsOnDisk() bool {
	if r.OnDisk != nil {
		return *r.OnDisk
	}
	if r.Status != nil {
		return *r.Status != StatusRemoved
	}
	return true
}

// Clone returns a deep-enough copy of r suitable for mutating independently
// (used by the delta computer before stamping a row's status).
func (r *Record) Clone() *Record {
	cp := *r
	if r.Size != nil {
		v := *r.Size
		cp.Size = &v
	}
	if r.Mtime != nil {
		v := *r.Mtime
		cp.Mtime = &v
	}
	if r.Checksum != nil {
		v := *r.Checksum
		cp.Checksum = &v
	}
	if r.Experiment != nil {
		v := *r.Experiment
		cp.Experiment = &v
	}
	if r.Run != nil {
		v := *r.Run
		cp.Run = &v
	}
	if r.OnDisk != nil {
		v := *r.OnDisk
		cp.OnDisk = &v
	}
	if r.Status != nil {
		v := *r.Status
		cp.Status = &v
	}
	return &cp
}
