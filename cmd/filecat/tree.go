package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/query"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree <catalog> <path>",
	Short: "Render an ASCII tree of the catalog under path",
	Args:  cobra.ExactArgs(2),
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().IntVar(&treeDepth, "depth", 3, "maximum recursion depth")
}

func runTree(cmd *cobra.Command, args []string) error {
	cat := query.Open(args[0])
	out, err := cat.Tree(args[1], treeDepth)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
