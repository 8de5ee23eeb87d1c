package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ca-srg/webgate/internal/mcpserver"
)

var (
	mcpServerHost string
	mcpServerPort int
	mcpUseStdio   bool
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start MCP (Model Context Protocol) server for the gateway operations",
	Long: `
Start an MCP server that exposes the gateway operations as tools usable by
MCP-compatible clients like Claude Desktop, IDEs, and agent frameworks.

The server provides four tools: web_search (cache-first), web_crawl,
web_extract and web_map. Configuration is loaded from environment
variables.

Examples:
  webgate mcp-server                   # Serve over HTTP on localhost:8080
  webgate mcp-server --port 9000       # Use custom port
  webgate mcp-server --stdio           # Serve over stdin/stdout
`,
	RunE: runMCPServer,
}

func init() {
	mcpServerCmd.Flags().StringVar(&mcpServerHost, "host", "localhost", "Server host address")
	mcpServerCmd.Flags().IntVar(&mcpServerPort, "port", 8080, "Server port")
	mcpServerCmd.Flags().BoolVar(&mcpUseStdio, "stdio", false, "Serve over stdin/stdout instead of HTTP")
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, cleanup, err := setupRuntime(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmd.Flags().Changed("host") {
		cfg.MCPServerHost = mcpServerHost
	}
	if cmd.Flags().Changed("port") {
		cfg.MCPServerPort = mcpServerPort
	}

	gw, err := buildGateway(ctx, cfg)
	if err != nil {
		return err
	}

	server, err := mcpserver.NewServer(&mcpserver.Config{
		Host: cfg.MCPServerHost,
		Port: cfg.MCPServerPort,
	}, gw)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger := log.New(os.Stderr, "[MCP Server] ", log.LstdFlags)
	server.SetLogger(logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if mcpUseStdio {
		go func() {
			<-sigChan
			logger.Printf("Received shutdown signal, stopping server...")
			cancel()
		}()
		return server.RunStdio(ctx)
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}

	logger.Printf("Available tools: web_search, web_crawl, web_extract, web_map")

	<-sigChan
	logger.Printf("Received shutdown signal, stopping server...")

	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	return nil
}
