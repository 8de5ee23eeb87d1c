package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/webgate/internal/gateway"
	"github.com/ca-srg/webgate/internal/metrics"
)

var (
	crawlURL          string
	crawlMaxDepth     int
	crawlMaxBreadth   int
	crawlLimit        int
	crawlInstructions string
	crawlOutputJSON   bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a website through the gateway",
	Long: `
Crawl a website starting from a base URL and print the raw content of
discovered pages. Crawl results always come from the live provider.

Examples:
  webgate crawl -u https://docs.example.com
  webgate crawl -u https://example.com --max-depth 2 --limit 20
`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlURL, "url", "u", "", "Base URL to start crawling from (required)")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 0, "Maximum link depth from the base URL")
	crawlCmd.Flags().IntVar(&crawlMaxBreadth, "max-breadth", 0, "Maximum number of links to follow per page")
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "Maximum number of pages to crawl")
	crawlCmd.Flags().StringVar(&crawlInstructions, "instructions", "", "Natural language guidance for the crawler")
	crawlCmd.Flags().BoolVarP(&crawlOutputJSON, "json", "j", false, "Output results in JSON format")

	_ = crawlCmd.MarkFlagRequired("url")
}

func runCrawl(cmd *cobra.Command, args []string) error {
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

	metrics.RecordInvocation(metrics.OperationCrawl)

	result, err := gw.Crawl(ctx, gateway.CrawlParams{
		URL:          crawlURL,
		MaxDepth:     crawlMaxDepth,
		MaxBreadth:   crawlMaxBreadth,
		Limit:        crawlLimit,
		Instructions: crawlInstructions,
	})
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if crawlOutputJSON {
		return printJSON(result)
	}

	fmt.Printf("\nBase URL: %s\n", result.BaseURL)
	fmt.Printf("Pages Crawled: %d\n", result.PagesCrawled)
	fmt.Printf("Execution Time: %dms\n", result.ExecutionTimeMs)

	for i, page := range result.Pages {
		fmt.Printf("\n  %d. %s\n", i+1, page.URL)
		fmt.Printf("     %d bytes of content\n", len(page.RawContent))
	}
	return nil
}
