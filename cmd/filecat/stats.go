package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/query"
	"github.com/polarsignals/filecat/internal/sizeparse"
)

var statsCmd = &cobra.Command{
	Use:   "stats <catalog>",
	Short: "Print aggregate statistics over the reconstructed view",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cat := query.Open(args[0])
	stats, err := cat.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("experiments:    %s\n", sizeparse.Count(stats.Experiments))
	fmt.Printf("snapshot files: %s\n", sizeparse.Count(stats.SnapshotFiles))
	fmt.Printf("rows:           %s\n", sizeparse.Count(stats.TotalRows))
	fmt.Printf("rows on disk:   %s\n", sizeparse.Count(stats.OnDiskRows))
	fmt.Printf("total size:     %s\n", sizeparse.Bytes(stats.TotalSize))
	return nil
}
