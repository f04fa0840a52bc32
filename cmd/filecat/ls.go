package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/query"
	"github.com/polarsignals/filecat/internal/sizeparse"
)

var (
	lsDirs   bool
	lsOnDisk bool
)

var lsCmd = &cobra.Command{
	Use:   "ls <catalog> <path>",
	Short: "List the catalog rows directly under path",
	Args:  cobra.ExactArgs(2),
	RunE:  runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsDirs, "dirs", "d", false, "list aggregated child directories instead of files")
	lsCmd.Flags().BoolVar(&lsOnDisk, "on-disk", false, "restrict to rows currently on disk")
}

func runLs(cmd *cobra.Command, args []string) error {
	cat := query.Open(args[0])
	path := args[1]

	if lsDirs {
		dirs, err := cat.LsDirs(path, lsOnDisk)
		if err != nil {
			return err
		}
		for _, d := range dirs {
			fmt.Printf("%s/\t%d files\t%s\n", d.Name, d.FileCount, sizeparse.Bytes(d.TotalSize))
		}
		return nil
	}

	rows, err := cat.Ls(path, lsOnDisk)
	if err != nil {
		return err
	}
	for _, r := range rows {
		size := "-"
		if r.Size != nil {
			size = sizeparse.Bytes(*r.Size)
		}
		fmt.Printf("%s\t%s\n", r.Filename, size)
	}
	return nil
}
