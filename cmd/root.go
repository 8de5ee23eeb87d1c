package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "webgate",
	Short: "Webgate - cache-first gateway for web intelligence APIs",
	Long: `Webgate mediates between AI agents and a web intelligence provider.
Search queries are answered from a semantic cache when a similar recent
query exists; otherwise they go to the provider through a shared rate
limiter and retry executor. Crawl, extract and map always go live.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(mcpServerCmd)
	rootCmd.AddCommand(statsCmd)
}
