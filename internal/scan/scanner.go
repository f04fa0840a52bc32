// Package scan implements the file scanner (C2): given a path it produces a
// catalog.Record, or reports that the path was skipped.
package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"syscall"

	"github.com/polarsignals/filecat/internal/catalog"
)

// hashChunkSize is the minimum read chunk size used while hashing file
// contents (§4.2: "Hashing reads the file in ≥8 KiB chunks").
const hashChunkSize = 64 * 1024

var runPattern = regexp.MustCompile(`run(\d+)`)

// Options configures a single scan call.
type Options struct {
	ComputeChecksum bool
	Experiment      string // empty means unset
	IndexedAt       string
}

// Scan stats path (without following symlinks) and builds a catalog.Record.
// It returns (nil, nil) for anything that should be silently skipped: a
// vanished file, a permission error, or any other OS error (§4.2, §7).
func Scan(path string, opts Options) (*catalog.Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, nil //nolint:nilerr // per §7, per-file OS errors are swallowed, not fatal
	}

	rec := &catalog.Record{
		Path:        path,
		ParentPath:  filepath.Dir(path),
		Filename:    filepath.Base(path),
		Permissions: rawMode(info),
		IndexedAt:   opts.IndexedAt,
	}

	if opts.Experiment != "" {
		exp := opts.Experiment
		rec.Experiment = &exp
	}
	if m := runPattern.FindStringSubmatch(path); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 32); err == nil {
			run := int32(n)
			rec.Run = &run
		}
	}

	if !info.IsDir() {
		size := info.Size()
		rec.Size = &size
	}
	mtime := info.ModTime().Unix()
	rec.Mtime = &mtime

	owner, group := ownerAndGroup(info)
	rec.Owner = owner
	rec.GroupName = group

	if opts.ComputeChecksum && isRegularFile(info) {
		sum, err := hashFile(path)
		if err != nil {
			// The file vanished or became unreadable between Lstat and
			// Open: skip it entirely rather than emit a partial record.
			return nil, nil //nolint:nilerr
		}
		rec.Checksum = &sum
	}

	return rec, nil
}

func isRegularFile(info os.FileInfo) bool {
	return info.Mode()&os.ModeType == 0
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ownerAndGroup renders the numeric uid/gid of info as decimal text (§3:
// "numeric ids rendered as decimal text"). Non-Unix platforms (no syscall.Stat_t
// available) fall back to empty strings.
func ownerAndGroup(info os.FileInfo) (owner, group string) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", ""
	}
	return strconv.FormatUint(uint64(sys.Uid), 10), strconv.FormatUint(uint64(sys.Gid), 10)
}

// rawMode returns the raw mode bits (including the file-type field) of info,
// matching §3's "permissions (int32; raw mode bits including file-type
// field)". Non-Unix platforms (no syscall.Stat_t available) fall back to
// Go's own os.FileMode bits.
func rawMode(info os.FileInfo) int32 {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return int32(uint32(info.Mode()))
	}
	return int32(sys.Mode)
}
