package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polarsignals/filecat/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query <catalog> <sql>",
	Short: "Run an ad-hoc read-only SQL query against the \"files\" table",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cat := query.Open(args[0])
	result, err := cat.Query(args[1])
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	return nil
}
