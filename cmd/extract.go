package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/webgate/internal/gateway"
	"github.com/ca-srg/webgate/internal/metrics"
)

var (
	extractURLs       []string
	extractDepth      string
	extractOutputJSON bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract page content from a batch of URLs",
	Long: `
Extract page content from one or more URLs. URLs the provider could not
fetch are reported alongside the successful ones.

Examples:
  webgate extract -u https://example.com/post
  webgate extract -u https://a.example.com -u https://b.example.com --depth advanced
`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringSliceVarP(&extractURLs, "url", "u", nil, "URL to extract content from (repeatable, required)")
	extractCmd.Flags().StringVar(&extractDepth, "depth", "", "Extraction depth: basic|advanced")
	extractCmd.Flags().BoolVarP(&extractOutputJSON, "json", "j", false, "Output results in JSON format")

	_ = extractCmd.MarkFlagRequired("url")
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	metrics.RecordInvocation(metrics.OperationExtract)

	result, err := gw.Extract(ctx, gateway.ExtractParams{
		URLs:  extractURLs,
		Depth: extractDepth,
	})
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	if extractOutputJSON {
		return printJSON(result)
	}

	fmt.Printf("\nExtracted %d of %d URLs\n", len(result.Pages), len(extractURLs))
	fmt.Printf("Execution Time: %dms\n", result.ExecutionTimeMs)

	for i, page := range result.Pages {
		fmt.Printf("\n  %d. %s\n", i+1, page.URL)
		fmt.Printf("     %d bytes of content\n", len(page.RawContent))
	}

	if len(result.Failed) > 0 {
		fmt.Println("\nFailed:")
		for _, f := range result.Failed {
			fmt.Printf("  %s: %s\n", f.URL, f.Error)
		}
	}
	return nil
}
