package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/query"
	"github.com/polarsignals/filecat/internal/sizeparse"
)

var (
	findSizeGt   string
	findSizeLt   string
	findExp      string
	findExclude  []string
	findOnDisk   bool
	findRemoved  bool
	findNoSymlnk bool
)

var findCmd = &cobra.Command{
	Use:   "find <catalog> <pattern>",
	Short: "Search the catalog by SQL-LIKE path pattern and predicates",
	Args:  cobra.ExactArgs(2),
	RunE:  runFind,
}

func init() {
	findCmd.Flags().StringVar(&findSizeGt, "size-gt", "", "only rows larger than this size (e.g. 1MB)")
	findCmd.Flags().StringVar(&findSizeLt, "size-lt", "", "only rows smaller than this size (e.g. 1GB)")
	findCmd.Flags().StringVarP(&findExp, "experiment", "e", "", "restrict to one experiment")
	findCmd.Flags().StringArrayVar(&findExclude, "exclude", nil, "SQL-LIKE pattern to exclude (repeatable)")
	findCmd.Flags().BoolVar(&findOnDisk, "on-disk", false, "restrict to rows currently on disk")
	findCmd.Flags().BoolVar(&findRemoved, "removed", false, "restrict to removed rows")
	findCmd.Flags().BoolVar(&findNoSymlnk, "skip-symlinks", false, "exclude symlink entries")
}

func runFind(cmd *cobra.Command, args []string) error {
	opts := query.FindOptions{
		Pattern:      args[1],
		Experiment:   findExp,
		Exclude:      findExclude,
		OnDiskOnly:   findOnDisk,
		RemovedOnly:  findRemoved,
		SkipSymlinks: findNoSymlnk,
	}

	if findSizeGt != "" {
		v, err := sizeparse.Parse(findSizeGt)
		if err != nil {
			return fmt.Errorf("--size-gt: %w", err)
		}
		opts.SizeGt = &v
	}
	if findSizeLt != "" {
		v, err := sizeparse.Parse(findSizeLt)
		if err != nil {
			return fmt.Errorf("--size-lt: %w", err)
		}
		opts.SizeLt = &v
	}

	cat := query.Open(args[0])
	rows, err := cat.Find(opts)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Println(r.Path)
	}
	return nil
}
