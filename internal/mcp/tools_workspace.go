package mcp

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bndkts/molt-md-mcp/internal/molt"
	"github.com/bndkts/molt-md-mcp/internal/validate"
)

// WorkspaceEntry references a document or nested workspace by id, together
// with the capability key needed to access it.
type WorkspaceEntry struct {
	Type string `json:"type" jsonschema:"Entry kind: md for documents, workspace for sub-workspaces"`
	ID   string `json:"id" jsonschema:"UUID of the referenced document or workspace"`
	Key  string `json:"key" jsonschema:"Write or read key for the referenced item"`
}

// ReadWorkspaceParams defines parameters for the read_workspace tool.
type ReadWorkspaceParams struct {
	WorkspaceID  string `json:"workspace_id" jsonschema:"UUID of the workspace to read"`
	PreviewLines *int   `json:"preview_lines,omitempty" jsonschema:"Include a preview of the first N lines for each document entry (optional)"`
}

// CreateWorkspaceParams defines parameters for the create_workspace tool.
type CreateWorkspaceParams struct {
	Name    string           `json:"name" jsonschema:"Human-readable workspace name"`
	Entries []WorkspaceEntry `json:"entries,omitempty" jsonschema:"Initial entries referencing documents or sub-workspaces (optional)"`
}

// UpdateWorkspaceParams defines parameters for the update_workspace tool.
type UpdateWorkspaceParams struct {
	WorkspaceID string           `json:"workspace_id" jsonschema:"UUID of the workspace to update"`
	Name        string           `json:"name" jsonschema:"New workspace name"`
	Entries     []WorkspaceEntry `json:"entries" jsonschema:"New list of entries, replaces the existing entries"`
	IfMatch     string           `json:"if_match,omitempty" jsonschema:"Version ETag (e.g. 'v1') to detect conflicting edits (optional)"`
}

// DeleteWorkspaceParams defines parameters for the delete_workspace tool.
type DeleteWorkspaceParams struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"UUID of the workspace to delete"`
}

// handleReadWorkspace handles the read_workspace tool call.
//
// Delegates to GET /workspaces/{id}.
func (s *Server) handleReadWorkspace(ctx context.Context, req *mcpsdk.CallToolRequest, params *ReadWorkspaceParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "read_workspace")
	defer s.metrics.DecrementActive(ctx, "read_workspace")

	if err := validate.UUID(params.WorkspaceID, "workspace_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "read_workspace", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	query := url.Values{}
	if params.PreviewLines != nil && *params.PreviewLines > 0 {
		query.Set("preview_lines", strconv.Itoa(*params.PreviewLines))
	}

	res, err := s.client.Do(ctx, http.MethodGet, "/workspaces/"+params.WorkspaceID, molt.RequestOptions{
		Query: query,
	})
	s.metrics.RecordInvocation(ctx, "read_workspace", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to read workspace", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleCreateWorkspace handles the create_workspace tool call.
//
// Delegates to POST /workspaces. Entries default to an empty list so the
// body always carries an array.
func (s *Server) handleCreateWorkspace(ctx context.Context, req *mcpsdk.CallToolRequest, params *CreateWorkspaceParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "create_workspace")
	defer s.metrics.DecrementActive(ctx, "create_workspace")

	entries := params.Entries
	if entries == nil {
		entries = []WorkspaceEntry{}
	}
	body := map[string]any{
		"name":    params.Name,
		"entries": entries,
	}

	res, err := s.client.Do(ctx, http.MethodPost, "/workspaces", molt.RequestOptions{JSON: body})
	s.metrics.RecordInvocation(ctx, "create_workspace", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to create workspace", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleUpdateWorkspace handles the update_workspace tool call.
//
// Delegates to PUT /workspaces/{id} with a full replacement of name and
// entries.
func (s *Server) handleUpdateWorkspace(ctx context.Context, req *mcpsdk.CallToolRequest, params *UpdateWorkspaceParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "update_workspace")
	defer s.metrics.DecrementActive(ctx, "update_workspace")

	if err := validate.UUID(params.WorkspaceID, "workspace_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "update_workspace", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	headers := http.Header{}
	if token := validate.NormalizeETag(params.IfMatch); token != "" {
		headers.Set("If-Match", token)
	}

	entries := params.Entries
	if entries == nil {
		entries = []WorkspaceEntry{}
	}
	body := map[string]any{
		"name":    params.Name,
		"entries": entries,
	}

	res, err := s.client.Do(ctx, http.MethodPut, "/workspaces/"+params.WorkspaceID, molt.RequestOptions{
		Headers: headers,
		JSON:    body,
	})
	s.metrics.RecordInvocation(ctx, "update_workspace", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to update workspace", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleDeleteWorkspace handles the delete_workspace tool call.
//
// Delegates to DELETE /workspaces/{id}. Referenced items are not cascade
// deleted by the server.
func (s *Server) handleDeleteWorkspace(ctx context.Context, req *mcpsdk.CallToolRequest, params *DeleteWorkspaceParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "delete_workspace")
	defer s.metrics.DecrementActive(ctx, "delete_workspace")

	if err := validate.UUID(params.WorkspaceID, "workspace_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "delete_workspace", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	_, err := s.client.Do(ctx, http.MethodDelete, "/workspaces/"+params.WorkspaceID, molt.RequestOptions{})
	s.metrics.RecordInvocation(ctx, "delete_workspace", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to delete workspace", err), nil, nil
	}

	return textResult("Workspace deleted successfully"), nil, nil
}
