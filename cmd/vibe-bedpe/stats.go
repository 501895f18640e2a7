package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-bedpe/internal/duckdb"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stats <records.duckdb>",
		Short:   "Show per-SVTYPE record counts from a DuckDB store",
		Example: `  vibe-bedpe stats calls.duckdb`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			store, err := duckdb.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountBySVType()
			if err != nil {
				return err
			}

			types := make([]string, 0, len(counts))
			var total int64
			for t, n := range counts {
				types = append(types, t)
				total += n
			}
			sort.Strings(types)

			out := cmd.OutOrStdout()
			for _, t := range types {
				fmt.Fprintf(out, "%s\t%d\n", t, counts[t])
			}
			fmt.Fprintf(out, "total\t%d\n", total)
			return nil
		},
	}
}
