package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/query"
)

var snapshotsExp string

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <catalog>",
	Short: "List snapshot files on disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshots,
}

func init() {
	snapshotsCmd.Flags().StringVarP(&snapshotsExp, "experiment", "e", "", "restrict to one experiment")
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	cat := query.Open(args[0])
	files, err := cat.Snapshots(snapshotsExp)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("%s\t%s\t%s\t%s\n", f.Experiment, f.Kind, f.Timestamp, f.Path)
	}
	return nil
}
