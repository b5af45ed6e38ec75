// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes docgraph lint tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docgraph/internal/api"
	"github.com/starford/docgraph/internal/report"
)

// Server wraps the MCP server with docgraph tools.
type Server struct {
	mcp *server.MCPServer
	svc *api.Service
}

// New creates a new MCP server with all docgraph tools registered.
func New(svc *api.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docgraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("lint",
		mcp.WithDescription("Re-scan the documentation tree and report orphans, dead links and dead anchors. "+
			"Read the rule reference via get_rules or the docgraph://rules resource."),
	), s.lint)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List documents reachable from the entrypoints with their depth and link counts."),
		mcp.WithString("sort", mcp.Description("Sort field: path (default) or depth")),
		mcp.WithString("query", mcp.Description("Optional front-matter filter, e.g. status=done,!draft")),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the root (e.g. docs/guide.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("query_frontmatter",
		mcp.WithDescription("List reachable documents whose front-matter matches an expression. "+
			"Terms are comma or && separated: key, !key, key=value, key!=value. List values match by membership."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Filter expression, e.g. status=done,!draft")),
	), s.queryFrontmatter)

	s.mcp.AddTool(mcp.NewTool("backlinks",
		mcp.WithDescription("Find all reachable documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through exported document content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_rules",
		mcp.WithDescription("Returns the reference for every diagnostic docgraph reports."),
	), s.getRules)

	s.mcp.AddResource(
		mcp.NewResource("docgraph://rules", "Diagnostic Rules",
			mcp.WithResourceDescription("What each docgraph diagnostic means and how to fix it."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func optString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

// ready runs a first lint pass if none has completed yet.
func (s *Server) ready(ctx context.Context) error {
	_, err := s.svc.Current()
	if errors.Is(err, api.ErrNotReady) {
		_, err = s.svc.Lint(ctx)
	}
	return err
}

func (s *Server) lint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Lint(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := report.WriteLint(&buf, res.Report, false); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) listFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ready(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.svc.Files(optString(req, "sort"), optString(req, "query"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(files, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) queryFrontmatter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ready(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.svc.Files(string(report.SortByPath), expr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no matching documents"), nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ready(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Document(path)
	if err != nil {
		return mcp.NewToolResultError("not found: " + path), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ready(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Document(path)
	if err != nil {
		return mcp.NewToolResultError("not found: " + path), nil
	}
	if len(doc.Backlinks) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(doc.Backlinks, "\n")), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RulesReference), nil
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docgraph://rules",
			MIMEType: "text/markdown",
			Text:     RulesReference,
		},
	}, nil
}
