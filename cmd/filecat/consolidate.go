package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/catalog"
)

var consolidateArchive string

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <catalog>",
	Short: "Rewrite base + deltas for every experiment into a single new base",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsolidate,
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateArchive, "archive", "", "move superseded snapshot files here instead of deleting them")
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	result, err := catalog.Consolidate(args[0], consolidateArchive, catalog.NewClock(), logger)
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}

	fmt.Printf("experiments_touched=%d files_removed=%d files_archived=%d\n",
		result.ExperimentsTouched, result.FilesRemoved, result.FilesArchived)
	return nil
}
