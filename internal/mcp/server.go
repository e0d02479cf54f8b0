// Package mcp exposes the molt-md document hosting API as MCP tools.
//
// The server speaks the MCP protocol over stdin/stdout and delegates every
// tool call to the remote API through the molt client:
//
//	agent → stdio (this server) → molt client → molt-md API
//
// Tool handlers never return protocol-level errors; every failure comes back
// to the agent as a descriptive text result.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/bndkts/molt-md-mcp/internal/molt"
)

// Server implements the MCP stdio server for molt-md.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *molt.Client
	metrics   *Metrics
	logger    *zap.Logger
}

// Config configures a Server.
type Config struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Name:    "molt-md",
		Version: "1.0.0",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates an MCP server that delegates tool calls to client.
func NewServer(cfg Config, client *molt.Client) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if cfg.Name == "" {
		cfg.Name = "molt-md"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	mcpServer := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		client:    client,
		metrics:   NewMetrics(cfg.Logger),
		logger:    cfg.Logger,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server using stdio transport.
//
// This method blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	if err := s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
