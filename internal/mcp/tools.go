package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/results"
)

// Workbench runs searches and keeps their result views open.
type Workbench interface {
	IsReady() bool
	Run(ctx context.Context, kind, query string) (*results.Synchronizer, error)
	Views() *results.Views
}

// SearchTreeArgument defines search_tree parameters.
type SearchTreeArgument struct {
	Kind  string `json:"kind" jsonschema:"Search kind: text, number, member or annotation"`
	Query string `json:"query" jsonschema:"Text, numeric literal, member name or annotation type to search for"`
}

// ViewArgument identifies an open result tree.
type ViewArgument struct {
	ViewID string `json:"view_id" jsonschema:"ID of a result tree returned by search_tree"`
}

// TreeHandler handles the result tree MCP tools.
type TreeHandler struct {
	workbench Workbench
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(workbench Workbench) *TreeHandler {
	return &TreeHandler{
		workbench: workbench,
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

func viewResult(view *results.View) *mcp.CallToolResult {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return errorResult("Failed to render result tree: %s", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// HandleSearch runs a search and returns the tree of its results.
func (h *TreeHandler) HandleSearch(ctx context.Context, req *mcp.CallToolRequest, args SearchTreeArgument) (*mcp.CallToolResult, any, error) {
	if !h.workbench.IsReady() {
		return errorResult("Search is not available. The workspace is still being loaded. Please try again later."), nil, nil
	}

	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	if _, err := domain.ParseSearchKind(args.Kind); err != nil {
		return errorResult("Invalid search kind %q, expected one of: %s", args.Kind, kindNames()), nil, nil
	}

	s, err := h.workbench.Run(ctx, args.Kind, args.Query)
	if err != nil {
		return errorResult("Search failed: %s", err), nil, nil
	}

	view, err := s.Snapshot(ctx)
	if err != nil {
		return errorResult("Failed to read result tree: %s", err), nil, nil
	}
	return viewResult(view), nil, nil
}

// HandleGet returns the current state of an open result tree.
func (h *TreeHandler) HandleGet(ctx context.Context, req *mcp.CallToolRequest, args ViewArgument) (*mcp.CallToolResult, any, error) {
	s, ok := h.workbench.Views().Get(args.ViewID)
	if !ok {
		return errorResult("No open result tree with id %q", args.ViewID), nil, nil
	}

	view, err := s.Snapshot(ctx)
	if err != nil {
		return errorResult("Failed to read result tree: %s", err), nil, nil
	}
	return viewResult(view), nil, nil
}

// HandleClose discards an open result tree.
func (h *TreeHandler) HandleClose(ctx context.Context, req *mcp.CallToolRequest, args ViewArgument) (*mcp.CallToolResult, any, error) {
	if !h.workbench.Views().Close(args.ViewID) {
		return errorResult("No open result tree with id %q", args.ViewID), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Closed result tree %s", args.ViewID)},
		},
	}, nil, nil
}

func kindNames() string {
	names := make([]string, 0, len(domain.SearchKinds))
	for _, k := range domain.SearchKinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

// RegisterTreeTools registers the result tree tools with an MCP server.
func RegisterTreeTools(server *mcp.Server, workbench Workbench) {
	handler := NewTreeHandler(workbench)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_tree",
		Description: "Search the decoded workspace and return the matches as a tree grouped by package, class and member",
	}, handler.HandleSearch)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tree",
		Description: "Return the current state of an open result tree; classes removed from the workspace no longer appear",
	}, handler.HandleGet)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "close_tree",
		Description: "Discard an open result tree",
	}, handler.HandleClose)
}
