package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/webgate/internal/metrics"
)

var statsOutputJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cumulative invocation counts per operation",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVarP(&statsOutputJSON, "json", "j", false, "Output stats in JSON format")
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := metrics.Init(); err != nil {
		return fmt.Errorf("failed to open metrics store: %w", err)
	}
	defer func() { _ = metrics.Close() }()

	stats := metrics.GetStats()
	if stats == nil {
		return fmt.Errorf("no invocation statistics available")
	}

	if statsOutputJSON {
		return printJSON(stats)
	}

	fmt.Println("Invocation counts:")
	for _, op := range []metrics.Operation{
		metrics.OperationSearch,
		metrics.OperationCrawl,
		metrics.OperationExtract,
		metrics.OperationMap,
	} {
		fmt.Printf("  %-8s %d\n", op, stats[op])
	}
	return nil
}
