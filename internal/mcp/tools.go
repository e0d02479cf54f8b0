package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/bndkts/molt-md-mcp/internal/molt"
)

// registerTools registers all MCP tools with the server.
//
// Read tools work with either key kind. Mutation tools need a write key; the
// API answers 403 when a read key attempts one and the classified message
// tells the agent to supply a write key. There is no up-front privilege
// probe.
func (s *Server) registerTools() {
	// Service tools
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "health_check",
		Description: "Check if the molt-md API is available and responding.",
	}, s.handleHealthCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_metrics",
		Description: "Get database statistics (total documents and workspaces count).",
	}, s.handleGetMetrics)

	// Document tools
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "read_doc",
		Description: "Read a document's decrypted content. Returns JSON with metadata by default, or plain markdown with as_markdown.",
	}, s.handleReadDoc)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_doc",
		Description: "Create a new encrypted document. Returns the document ID and both write and read keys. IMPORTANT: save these keys, they are shown only once.",
	}, s.handleCreateDoc)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_doc",
		Description: "Replace a document's entire content with new content. Requires a write key.",
	}, s.handleUpdateDoc)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "append_doc",
		Description: "Append content to the end of a document, separated by a newline. Requires a write key.",
	}, s.handleAppendDoc)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_doc",
		Description: "Permanently delete a document. This action cannot be undone. Requires a write key.",
	}, s.handleDeleteDoc)

	// Workspace tools
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "read_workspace",
		Description: "Read a workspace's decrypted content (name and entries).",
	}, s.handleReadWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_workspace",
		Description: "Create a new encrypted workspace to bundle multiple documents. Returns the workspace ID and both write and read keys. IMPORTANT: save these keys, they are shown only once.",
	}, s.handleCreateWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_workspace",
		Description: "Replace a workspace's entire content (name and entries). Requires a write key.",
	}, s.handleUpdateWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_workspace",
		Description: "Permanently delete a workspace. Referenced documents and sub-workspaces are NOT deleted. This action cannot be undone. Requires a write key.",
	}, s.handleDeleteWorkspace)
}

// textResult wraps a string as an MCP tool result.
func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}
}

// failure renders an operation failure as a tool result, prefixed with the
// operation label.
func (s *Server) failure(label string, err error) *mcpsdk.CallToolResult {
	s.logger.Warn("tool call failed", zap.String("operation", label), zap.Error(err))
	return textResult(label + ": " + err.Error())
}

// prettyJSON renders a decoded value as indented JSON.
func prettyJSON(v any) string {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(buf)
}

// readTrailer builds the metadata comment appended to markdown document
// reads: the version token, and the total line count when the body was
// truncated to a requested line cap.
func readTrailer(res *molt.Result) string {
	var b strings.Builder
	if etag := res.ETag(); etag != "" {
		fmt.Fprintf(&b, "\n\n<!-- version: %s -->", etag)
	}
	if res.Truncated() {
		fmt.Fprintf(&b, "\n<!-- truncated: %d total lines -->", res.TotalLines())
	}
	return b.String()
}

// HealthCheckParams defines parameters for the health_check tool (none).
type HealthCheckParams struct{}

// GetMetricsParams defines parameters for the get_metrics tool (none).
type GetMetricsParams struct{}

// handleHealthCheck handles the health_check tool call.
//
// Delegates to GET /health.
func (s *Server) handleHealthCheck(ctx context.Context, req *mcpsdk.CallToolRequest, params *HealthCheckParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "health_check")
	defer s.metrics.DecrementActive(ctx, "health_check")

	res, err := s.client.Do(ctx, http.MethodGet, "/health", molt.RequestOptions{})
	s.metrics.RecordInvocation(ctx, "health_check", time.Since(start), err)
	if err != nil {
		return s.failure("Health check failed", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleGetMetrics handles the get_metrics tool call.
//
// Delegates to GET /metrics.
func (s *Server) handleGetMetrics(ctx context.Context, req *mcpsdk.CallToolRequest, params *GetMetricsParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "get_metrics")
	defer s.metrics.DecrementActive(ctx, "get_metrics")

	res, err := s.client.Do(ctx, http.MethodGet, "/metrics", molt.RequestOptions{})
	s.metrics.RecordInvocation(ctx, "get_metrics", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to get metrics", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}
