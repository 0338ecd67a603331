// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes note lookups for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notelookup/internal/history"
	"github.com/starford/notelookup/internal/lookup"
)

const namingGuideURI = "notelookup://naming"

// HistoryReader is the lookup history consulted by recent_lookups.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Search(ctx context.Context, query string, limit int) ([]history.Entry, error)
}

// Server wraps the MCP server with lookup tools.
type Server struct {
	mcp     *server.MCPServer
	lookups *lookup.Service
	history HistoryReader
}

// New creates an MCP server with all tools registered. hist may be nil,
// in which case recent_lookups is not offered.
func New(lookups *lookup.Service, hist HistoryReader, version string) *Server {
	s := &Server{lookups: lookups, history: hist}

	s.mcp = server.NewMCPServer(
		"notelookup",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("lookup_note",
		mcp.WithDescription("Look up a note in the repository by its dot-separated name. "+
			"Returns the note's front matter and body as cards. See the naming guide "+
			"(get_naming_guide tool or "+namingGuideURI+" resource) for how names map to files."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, e.g. project.alpha")),
		mcp.WithString("mode", mcp.Description("Which cards to return"), mcp.Enum(string(lookup.ModeFull), string(lookup.ModeFrontmatter), string(lookup.ModeBody))),
	), s.lookupNote)

	s.mcp.AddTool(mcp.NewTool("get_root_config",
		mcp.WithDescription("Return the repository root configuration (dendron.yml) and the note prefix in effect."),
	), s.getRootConfig)

	s.mcp.AddTool(mcp.NewTool("get_naming_guide",
		mcp.WithDescription("Explain how note names resolve to repository files."),
	), s.getNamingGuide)

	if hist != nil {
		s.mcp.AddTool(mcp.NewTool("recent_lookups",
			mcp.WithDescription("List recent note lookups, newest first."),
			mcp.WithString("query", mcp.Description("Optional substring of the note name")),
			mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
		), s.recentLookups)
	}

	s.mcp.AddResource(
		mcp.NewResource(namingGuideURI, "Note Naming Guide",
			mcp.WithResourceDescription("How note names map to repository files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNamingGuideResource,
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

func (s *Server) lookupNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := lookup.ParseMode(req.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.lookups.Lookup(ctx, name, mode)
	if err != nil {
		return mcp.NewToolResultError(lookup.UserMessage(name, err)), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRootConfig(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := s.lookups.RootConfig(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"config":      cfg,
		"note_prefix": cfg.NotePrefix(),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNamingGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NamingGuide), nil
}

func (s *Server) recentLookups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := req.GetInt("limit", 0)

	var (
		entries []history.Entry
		err     error
	)
	if query != "" {
		entries, err = s.history.Search(ctx, query, limit)
	} else {
		entries, err = s.history.Recent(ctx, limit)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no lookups recorded"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNamingGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      namingGuideURI,
			MIMEType: "text/markdown",
			Text:     NamingGuide,
		},
	}, nil
}
