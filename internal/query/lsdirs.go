package query

import (
	"sort"
	"strings"
)

// DirAgg is one row of LsDirs: an immediate child directory of the queried
// path, with the file count and total size of everything beneath it.
type DirAgg struct {
	Name      string
	FileCount int
	TotalSize int64
}

// LsDirs aggregates over rows whose parent_path begins with path+"/" (and is
// not path itself), grouping by the first path component after that prefix.
// Results are sorted by directory name; an empty-named group (which would
// only arise from a malformed parent_path) is excluded (§4.7).
func (c *Catalog) LsDirs(path string, onDiskOnly bool) ([]DirAgg, error) {
	path = strings.TrimSuffix(path, "/")
	prefix := path + "/"

	rows, err := c.rows(onDiskOnly)
	if err != nil {
		return nil, err
	}

	counts := map[string]*DirAgg{}
	for _, r := range rows {
		if r.ParentPath == path || !strings.HasPrefix(r.ParentPath, prefix) {
			continue
		}
		rest := strings.TrimPrefix(r.ParentPath, prefix)
		name := rest
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			name = rest[:idx]
		}
		if name == "" {
			continue
		}

		agg, ok := counts[name]
		if !ok {
			agg = &DirAgg{Name: name}
			counts[name] = agg
		}
		agg.FileCount++
		if r.Size != nil {
			agg.TotalSize += *r.Size
		}
	}

	out := make([]DirAgg, 0, len(counts))
	for _, agg := range counts {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
