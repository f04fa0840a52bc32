package query

import (
	"fmt"
	"strings"
)

// Tree renders path as a box-drawing ASCII tree up to depth levels deep,
// composed purely from LsDirs and Ls results (§4.7: "pure composition").
// Tree always operates on-disk-only.
func (c *Catalog) Tree(path string, depth int) (string, error) {
	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('\n')
	if err := c.treeLevel(&b, path, depth, ""); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (c *Catalog) treeLevel(b *strings.Builder, path string, depth int, prefix string) error {
	if depth <= 0 {
		return nil
	}

	dirs, err := c.LsDirs(path, true)
	if err != nil {
		return err
	}
	files, err := c.Ls(path, true)
	if err != nil {
		return err
	}

	total := len(dirs) + len(files)
	idx := 0

	for _, d := range dirs {
		last := idx == total-1
		b.WriteString(prefix)
		b.WriteString(connector(last))
		fmt.Fprintf(b, "%s/ (%d files, %d bytes)\n", d.Name, d.FileCount, d.TotalSize)
		if err := c.treeLevel(b, path+"/"+d.Name, depth-1, prefix+childPrefix(last)); err != nil {
			return err
		}
		idx++
	}

	for _, f := range files {
		last := idx == total-1
		b.WriteString(prefix)
		b.WriteString(connector(last))
		b.WriteString(f.Filename)
		b.WriteByte('\n')
		idx++
	}

	return nil
}

func connector(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func childPrefix(last bool) string {
	if last {
		return "    "
	}
	return "│   "
}
