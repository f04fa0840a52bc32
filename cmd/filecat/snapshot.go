package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/catalog"
	"github.com/polarsignals/filecat/internal/ingest"
	"github.com/polarsignals/filecat/internal/metrics"
)

var (
	snapshotOut       string
	snapshotExp       string
	snapshotChecksum  bool
	snapshotWorkers   int
	snapshotBatchSize int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <path>",
	Short: "Walk a directory tree and record its current metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "catalog root (required)")
	snapshotCmd.Flags().StringVarP(&snapshotExp, "experiment", "e", "", "experiment label")
	snapshotCmd.Flags().BoolVar(&snapshotChecksum, "checksum", false, "compute SHA-256 checksums")
	snapshotCmd.Flags().IntVar(&snapshotWorkers, "workers", 4, "number of concurrent walk/scan workers")
	snapshotCmd.Flags().IntVar(&snapshotBatchSize, "batch-size", 1024, "file scan batch size")
	snapshotCmd.MarkFlagRequired("out")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	root := args[0]

	m := metrics.NewSnapshot(nil)

	result, err := ingest.Snapshot(context.Background(), ingest.Options{
		Root:            root,
		CatalogRoot:     snapshotOut,
		Experiment:      snapshotExp,
		ComputeChecksum: snapshotChecksum,
		Workers:         snapshotWorkers,
		BatchSize:       snapshotBatchSize,
		Clock:           catalog.NewClock(),
		Logger:          logger,
		Metrics:         m,
	})
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	fmt.Printf("added=%d modified=%d removed=%d\n", result.Added, result.Modified, result.Removed)
	return nil
}
