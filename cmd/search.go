package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/webgate/internal/metrics"
	"github.com/ca-srg/webgate/internal/types"
)

var (
	searchQuery             string
	searchScopeID           string
	searchMaxResults        int
	searchDepth             string
	searchTopic             string
	searchIncludeAnswer     bool
	searchIncludeRawContent bool
	searchNoCache           bool
	searchOutputJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the web through the cache-first gateway",
	Long: `
Search the web. Results are served from the semantic cache when a similar
recent query exists, otherwise from the live provider. The response is
tagged with its source.

Examples:
  webgate search -q "golang concurrency patterns"
  webgate search -q "election results" --topic news --include-answer
  webgate search -q "private notes" --scope team-a --no-cache
`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Text query to search for (required)")
	searchCmd.Flags().StringVar(&searchScopeID, "scope", "", "Cache namespace for lookups and writes")
	searchCmd.Flags().IntVarP(&searchMaxResults, "max-results", "k", 0, "Maximum number of results to return")
	searchCmd.Flags().StringVar(&searchDepth, "depth", "basic", "Search depth: basic|advanced")
	searchCmd.Flags().StringVar(&searchTopic, "topic", "general", "Search topic: general|news")
	searchCmd.Flags().BoolVar(&searchIncludeAnswer, "include-answer", false, "Include a synthesized answer")
	searchCmd.Flags().BoolVar(&searchIncludeRawContent, "include-raw-content", false, "Include raw page content in results")
	searchCmd.Flags().BoolVar(&searchNoCache, "no-cache", false, "Skip the cache lookup and do not store the results")
	searchCmd.Flags().BoolVarP(&searchOutputJSON, "json", "j", false, "Output results in JSON format")

	_ = searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	metrics.RecordInvocation(metrics.OperationSearch)

	result, err := gw.Search(ctx, types.SearchQuery{
		Text:              searchQuery,
		ScopeID:           searchScopeID,
		MaxResults:        searchMaxResults,
		Depth:             types.SearchDepth(searchDepth),
		Topic:             types.Topic(searchTopic),
		IncludeAnswer:     searchIncludeAnswer,
		IncludeRawContent: searchIncludeRawContent,
	}, !searchNoCache)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchOutputJSON {
		return printJSON(result)
	}

	fmt.Printf("\nQuery: %s\n", result.Query)
	fmt.Printf("Source: %s\n", result.Source)
	if result.CachedAt != nil {
		fmt.Printf("Cached At: %s\n", result.CachedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Printf("Execution Time: %dms\n", result.ExecutionTimeMs)

	if result.Answer != "" {
		fmt.Printf("\nAnswer: %s\n", result.Answer)
	}

	if len(result.Results) == 0 {
		fmt.Println("\n  (no results found)")
		return nil
	}

	fmt.Println("\nResults:")
	for i, item := range result.Results {
		fmt.Printf("\n  %d. %s\n", i+1, item.Title)
		fmt.Printf("     URL: %s\n", item.URL)
		fmt.Printf("     Score: %.4f\n", item.Score)
		if item.Content != "" {
			fmt.Printf("     %s\n", item.Content)
		}
	}
	return nil
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
