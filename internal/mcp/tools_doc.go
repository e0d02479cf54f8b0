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

// ReadDocParams defines parameters for the read_doc tool.
type ReadDocParams struct {
	DocID      string `json:"doc_id" jsonschema:"UUID of the document to read"`
	Lines      *int   `json:"lines,omitempty" jsonschema:"Return only the first N lines, for previews (optional)"`
	AsMarkdown bool   `json:"as_markdown,omitempty" jsonschema:"If true, return plain markdown; if false, return JSON with metadata"`
}

// CreateDocParams defines parameters for the create_doc tool.
type CreateDocParams struct {
	Content *string `json:"content,omitempty" jsonschema:"Initial markdown content for the document (optional)"`
}

// UpdateDocParams defines parameters for the update_doc tool.
type UpdateDocParams struct {
	DocID   string `json:"doc_id" jsonschema:"UUID of the document to update"`
	Content string `json:"content" jsonschema:"New markdown content, replaces the existing content"`
	IfMatch string `json:"if_match,omitempty" jsonschema:"Version ETag (e.g. 'v5') to detect conflicting edits (optional)"`
}

// AppendDocParams defines parameters for the append_doc tool.
type AppendDocParams struct {
	DocID   string `json:"doc_id" jsonschema:"UUID of the document to append to"`
	Content string `json:"content" jsonschema:"Markdown content to append"`
	IfMatch string `json:"if_match,omitempty" jsonschema:"Version ETag (e.g. 'v5') to detect conflicting edits (optional)"`
}

// DeleteDocParams defines parameters for the delete_doc tool.
type DeleteDocParams struct {
	DocID string `json:"doc_id" jsonschema:"UUID of the document to delete"`
}

// handleReadDoc handles the read_doc tool call.
//
// Delegates to GET /docs/{id}. Markdown reads carry the version token and
// any truncation note as a comment trailer after the body; JSON reads are
// pretty-printed as-is.
func (s *Server) handleReadDoc(ctx context.Context, req *mcpsdk.CallToolRequest, params *ReadDocParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "read_doc")
	defer s.metrics.DecrementActive(ctx, "read_doc")

	if err := validate.UUID(params.DocID, "doc_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "read_doc", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	headers := http.Header{}
	if params.AsMarkdown {
		headers.Set("Accept", "text/markdown")
	} else {
		headers.Set("Accept", "application/json")
	}
	query := url.Values{}
	if params.Lines != nil && *params.Lines > 0 {
		query.Set("lines", strconv.Itoa(*params.Lines))
	}

	res, err := s.client.Do(ctx, http.MethodGet, "/docs/"+params.DocID, molt.RequestOptions{
		Headers: headers,
		Query:   query,
	})
	s.metrics.RecordInvocation(ctx, "read_doc", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to read document", err), nil, nil
	}

	if body, ok := res.Data.(string); ok {
		return textResult(body + readTrailer(res)), nil, nil
	}
	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleCreateDoc handles the create_doc tool call.
//
// Delegates to POST /docs. Absent content sends an empty body object;
// explicitly empty content still sends the content field.
func (s *Server) handleCreateDoc(ctx context.Context, req *mcpsdk.CallToolRequest, params *CreateDocParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "create_doc")
	defer s.metrics.DecrementActive(ctx, "create_doc")

	body := map[string]any{}
	if params.Content != nil {
		body["content"] = *params.Content
	}

	res, err := s.client.Do(ctx, http.MethodPost, "/docs", molt.RequestOptions{JSON: body})
	s.metrics.RecordInvocation(ctx, "create_doc", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to create document", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleUpdateDoc handles the update_doc tool call.
//
// Delegates to PUT /docs/{id} with the new content as a raw markdown body.
func (s *Server) handleUpdateDoc(ctx context.Context, req *mcpsdk.CallToolRequest, params *UpdateDocParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "update_doc")
	defer s.metrics.DecrementActive(ctx, "update_doc")

	if err := validate.UUID(params.DocID, "doc_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "update_doc", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	headers := http.Header{}
	headers.Set("Content-Type", "text/markdown")
	if token := validate.NormalizeETag(params.IfMatch); token != "" {
		headers.Set("If-Match", token)
	}

	res, err := s.client.Do(ctx, http.MethodPut, "/docs/"+params.DocID, molt.RequestOptions{
		Headers: headers,
		Raw:     []byte(params.Content),
	})
	s.metrics.RecordInvocation(ctx, "update_doc", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to update document", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleAppendDoc handles the append_doc tool call.
//
// Delegates to PATCH /docs/{id}; the server concatenates with a separating
// newline.
func (s *Server) handleAppendDoc(ctx context.Context, req *mcpsdk.CallToolRequest, params *AppendDocParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "append_doc")
	defer s.metrics.DecrementActive(ctx, "append_doc")

	if err := validate.UUID(params.DocID, "doc_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "append_doc", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	headers := http.Header{}
	headers.Set("Content-Type", "text/markdown")
	if token := validate.NormalizeETag(params.IfMatch); token != "" {
		headers.Set("If-Match", token)
	}

	res, err := s.client.Do(ctx, http.MethodPatch, "/docs/"+params.DocID, molt.RequestOptions{
		Headers: headers,
		Raw:     []byte(params.Content),
	})
	s.metrics.RecordInvocation(ctx, "append_doc", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to append to document", err), nil, nil
	}

	return textResult(prettyJSON(res.Data)), nil, nil
}

// handleDeleteDoc handles the delete_doc tool call.
//
// Delegates to DELETE /docs/{id}.
func (s *Server) handleDeleteDoc(ctx context.Context, req *mcpsdk.CallToolRequest, params *DeleteDocParams) (*mcpsdk.CallToolResult, any, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "delete_doc")
	defer s.metrics.DecrementActive(ctx, "delete_doc")

	if err := validate.UUID(params.DocID, "doc_id"); err != nil {
		s.metrics.RecordInvocation(ctx, "delete_doc", time.Since(start), err)
		return textResult(err.Error()), nil, nil
	}

	_, err := s.client.Do(ctx, http.MethodDelete, "/docs/"+params.DocID, molt.RequestOptions{})
	s.metrics.RecordInvocation(ctx, "delete_doc", time.Since(start), err)
	if err != nil {
		return s.failure("Failed to delete document", err), nil, nil
	}

	return textResult("Document deleted successfully"), nil, nil
}
