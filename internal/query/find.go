package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/polarsignals/filecat/internal/catalog"
)

// FindOptions bundles find's predicates (§4.7).
type FindOptions struct {
	Pattern      string // SQL LIKE pattern matched against path
	SizeGt       *int64
	SizeLt       *int64
	Experiment   string
	Exclude      []string // additional LIKE patterns, applied as NOT LIKE conjunction
	OnDiskOnly   bool
	RemovedOnly  bool
	SkipSymlinks bool
}

// fileTypeMask isolates the file-type bits of a raw permissions/mode
// value; symlinkModeBits is S_IFLNK (0o120000), matching the standard Unix
// mode encoding embedded in MetadataRecord.Permissions (§3, §4.7).
const (
	fileTypeMask    = 0o170000
	symlinkModeBits = 0o120000
)

// Find returns rows matching opts.Pattern (SQL LIKE semantics) and every
// other supplied predicate, sorted by path.
func (c *Catalog) Find(opts FindOptions) ([]*catalog.Record, error) {
	like, err := compileLike(opts.Pattern)
	if err != nil {
		return nil, err
	}

	excludes := make([]*regexp.Regexp, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		re, err := compileLike(p)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, re)
	}

	st, err := c.view(opts.Experiment)
	if err != nil {
		return nil, err
	}

	var out []*catalog.Record
	for _, r := range st {
		if !like.MatchString(r.Path) {
			continue
		}
		if anyMatches(excludes, r.Path) {
			continue
		}
		if opts.OnDiskOnly && !r.IsOnDisk() {
			continue
		}
		if opts.RemovedOnly && r.IsOnDisk() {
			continue
		}
		if opts.SizeGt != nil && (r.Size == nil || *r.Size <= *opts.SizeGt) {
			continue
		}
		if opts.SizeLt != nil && (r.Size == nil || *r.Size >= *opts.SizeLt) {
			continue
		}
		if opts.SkipSymlinks && (r.Permissions&fileTypeMask) == symlinkModeBits {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func anyMatches(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// compileLike translates a SQL LIKE pattern (% = any run of characters,
// _ = exactly one character, both literal-escapable with a leading
// backslash) into an anchored Go regexp.
func compileLike(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}
