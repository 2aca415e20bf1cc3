package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sitecat/internal/catalog"
	"github.com/hpungsan/sitecat/internal/config"
	"github.com/hpungsan/sitecat/internal/errors"
	"github.com/hpungsan/sitecat/internal/history"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// BuildRequest represents the arguments for catalog_build.
type BuildRequest struct {
	Root   string `json:"root,omitempty"`
	Output string `json:"output,omitempty"`
	Strict bool   `json:"strict,omitempty"`
}

// InspectRequest represents the arguments for catalog_inspect.
type InspectRequest struct {
	Path string `json:"path"`
}

// ListRequest represents the arguments for catalog_list.
type ListRequest struct {
	Root string `json:"root,omitempty"`
}

// HistoryRequest represents the arguments for catalog_history.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleBuild handles the catalog_build tool call.
func (h *Handlers) HandleBuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BuildRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Root == "" {
		input.Root = h.cfg.Root
	}
	if input.Output == "" {
		input.Output = h.cfg.Output
	}

	result, err := catalog.Build(catalog.BuildInput{
		Root:   input.Root,
		Output: input.Output,
		Strict: input.Strict,
	})
	if err != nil {
		return errorResult(err), nil
	}

	if h.db != nil {
		if _, err := history.RecordBuild(h.db, result); err != nil {
			log.Printf("warning: failed to record build history: %v", err)
		}
	}

	return successResult(result)
}

// HandleInspect handles the catalog_inspect tool call.
func (h *Handlers) HandleInspect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InspectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Path == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	result, err := catalog.Inspect(catalog.InspectInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the catalog_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Root == "" {
		input.Root = h.cfg.Root
	}

	result, err := catalog.List(catalog.ListInput{Root: input.Root})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the catalog_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Limit <= 0 {
		input.Limit = h.cfg.HistoryLimit
	}

	if h.db == nil {
		return successResult(&history.RecentOutput{Builds: []history.Record{}})
	}

	builds, err := history.Recent(h.db, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(&history.RecentOutput{Builds: builds})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var siteErr *errors.SiteError
	if stderrors.As(err, &siteErr) {
		message := siteErr.Message
		// A wrapped error carries extra context in the outer message.
		if err.Error() != siteErr.Error() {
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    siteErr.Code,
			"message": message,
			"status":  siteErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if siteErr.Code != errors.ErrInternal && siteErr.Details != nil {
			errorObj["details"] = siteErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
