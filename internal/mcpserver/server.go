// Package mcpserver exposes the gateway operations as MCP tools so that
// MCP-compatible clients (Claude Desktop, IDEs, agent frameworks) can call
// search, crawl, extract and map through a standard protocol.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ca-srg/webgate/internal/gateway"
)

// Config holds the network settings for the HTTP transport.
type Config struct {
	Host string
	Port int
}

// Server wraps the MCP SDK server and serves it over streamable HTTP or
// stdio. All tool handlers delegate to the gateway.
type Server struct {
	gw         *gateway.Gateway
	sdkServer  *mcp.Server
	httpServer *http.Server
	cfg        *Config

	logger    *log.Logger
	mutex     sync.RWMutex
	isRunning bool
}

// NewServer builds a server with the four gateway tools registered.
func NewServer(cfg *Config, gw *gateway.Gateway) (*Server, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port <= 0 {
		cfg.Port = 8080
	}

	s := &Server{
		gw:     gw,
		cfg:    cfg,
		logger: log.New(os.Stdout, "[MCP Server] ", log.LstdFlags),
	}

	impl := &mcp.Implementation{
		Name:    "webgate-mcp-server",
		Version: "1.0.0",
	}
	s.sdkServer = mcp.NewServer(impl, nil)
	s.registerTools()

	return s, nil
}

// SetLogger replaces the server logger.
func (s *Server) SetLogger(logger *log.Logger) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// Address returns the listen address of the HTTP transport.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// IsRunning reports whether the HTTP transport is serving.
func (s *Server) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isRunning
}

// RunStdio serves the MCP protocol over stdin/stdout until the context is
// cancelled or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Printf("Serving MCP over stdio")
	return s.sdkServer.Run(ctx, &mcp.StdioTransport{})
}

// Start serves the MCP protocol over streamable HTTP in the background.
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("server is already running")
	}

	getServer := func(r *http.Request) *mcp.Server { return s.sdkServer }
	mcpHandler := mcp.NewStreamableHTTPHandler(getServer, nil)

	mux := http.NewServeMux()
	mux.Handle("/", mcpHandler)
	mux.Handle("/mcp", mcpHandler)
	mux.HandleFunc("/health", s.handleHealthCheck)

	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.loggingMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("HTTP server error: %v", err)
		}
	}()

	s.isRunning = true
	s.logger.Printf("MCP server started on %s", s.Address())
	return nil
}

// Stop shuts the HTTP transport down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return fmt.Errorf("server is not running")
	}

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("Graceful shutdown failed: %v, closing immediately", err)
			if err := s.httpServer.Close(); err != nil {
				s.logger.Printf("Failed to close HTTP server: %v", err)
			}
		}
	}

	s.isRunning = false
	s.logger.Printf("MCP server stopped")
	return nil
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := fmt.Sprintf(`{"status":"healthy","running":%v,"address":"%s"}`,
		s.IsRunning(), s.Address())
	if _, err := w.Write([]byte(response)); err != nil {
		s.logger.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("Request: %s %s duration=%s remote=%s user_agent=%q",
			r.Method, r.URL.Path, time.Since(start), r.RemoteAddr,
			r.Header.Get("User-Agent"))
	})
}
