package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/webgate/internal/gateway"
	"github.com/ca-srg/webgate/internal/metrics"
)

var (
	mapURL          string
	mapMaxDepth     int
	mapMaxBreadth   int
	mapLimit        int
	mapInstructions string
	mapOutputJSON   bool
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Discover the URL structure of a website",
	Long: `
Map a website starting from a base URL and print the discovered URLs.

Examples:
  webgate map -u https://docs.example.com
  webgate map -u https://example.com --max-depth 3 --limit 100
`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapURL, "url", "u", "", "Base URL to map from (required)")
	mapCmd.Flags().IntVar(&mapMaxDepth, "max-depth", 0, "Maximum link depth from the base URL")
	mapCmd.Flags().IntVar(&mapMaxBreadth, "max-breadth", 0, "Maximum number of links to follow per page")
	mapCmd.Flags().IntVar(&mapLimit, "limit", 0, "Maximum number of URLs to return")
	mapCmd.Flags().StringVar(&mapInstructions, "instructions", "", "Natural language guidance for the mapper")
	mapCmd.Flags().BoolVarP(&mapOutputJSON, "json", "j", false, "Output results in JSON format")

	_ = mapCmd.MarkFlagRequired("url")
}

func runMap(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, cleanup, err := setupRuntime(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	gw, err := buildGateway(ctx, cfg)
	if err != nil {
		return err
	}

	metrics.RecordInvocation(metrics.OperationMap)

	result, err := gw.MapSite(ctx, gateway.MapParams{
		URL:          mapURL,
		MaxDepth:     mapMaxDepth,
		MaxBreadth:   mapMaxBreadth,
		Limit:        mapLimit,
		Instructions: mapInstructions,
	})
	if err != nil {
		return fmt.Errorf("map failed: %w", err)
	}

	if mapOutputJSON {
		return printJSON(result)
	}

	fmt.Printf("\nBase URL: %s\n", result.BaseURL)
	fmt.Printf("Found %d URLs\n", len(result.URLs))
	fmt.Printf("Execution Time: %dms\n", result.ExecutionTimeMs)

	for _, u := range result.URLs {
		fmt.Printf("  %s\n", u)
	}
	return nil
}
