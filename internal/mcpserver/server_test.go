package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notelookup/internal/history"
	"github.com/starford/notelookup/internal/lookup"
	"github.com/starford/notelookup/internal/noteservice"
	"github.com/starford/notelookup/internal/resolver"
	"github.com/starford/notelookup/internal/rootconfig"
	"github.com/starford/notelookup/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.FakeRepo) {
	t.Helper()

	repo := testutil.TestRepo(t)
	repo.SetFile(rootconfig.DefaultPath, "workspace:\n  vaults:\n    - fsPath: vault\n")

	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	notes := noteservice.New(resolver.New(repo, testutil.Coordinates))
	lookups := lookup.NewService(notes,
		lookup.WithRecorder(db),
		lookup.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return New(lookups, db, "test"), repo
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "lookup_note":
		result, err = srv.lookupNote(ctx, req)
	case "get_root_config":
		result, err = srv.getRootConfig(ctx, req)
	case "get_naming_guide":
		result, err = srv.getNamingGuide(ctx, req)
	case "recent_lookups":
		result, err = srv.recentLookups(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestLookupNote(t *testing.T) {
	srv, repo := testServer(t)
	repo.SetFile("vault/project.alpha.md", "---\ntitle: Alpha\n---\nBody")

	r := callTool(t, srv, "lookup_note", map[string]any{"name": "project.alpha"})
	if r.IsError {
		t.Fatalf("lookup failed: %s", resultText(r))
	}
	var res lookup.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Note.Path != "vault/project.alpha.md" || res.Note.Title != "Alpha" {
		t.Errorf("note = %+v", res.Note)
	}
	if len(res.Cards) != 2 {
		t.Errorf("cards = %d, want 2", len(res.Cards))
	}
}

func TestLookupNote_Mode(t *testing.T) {
	srv, repo := testServer(t)
	repo.SetFile("vault/foo.md", "Body")

	r := callTool(t, srv, "lookup_note", map[string]any{"name": "foo", "mode": "body"})
	var res lookup.Result
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if len(res.Cards) != 1 || res.Cards[0].Kind != lookup.KindBody {
		t.Errorf("cards = %+v", res.Cards)
	}

	r = callTool(t, srv, "lookup_note", map[string]any{"name": "foo", "mode": "everything"})
	if !r.IsError {
		t.Error("expected error for unknown mode")
	}
}

func TestLookupNote_Missing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "lookup_note", map[string]any{"name": "nope"})
	if !r.IsError {
		t.Fatal("expected error for missing note")
	}
	if text := resultText(r); text != "Couldn't find note `nope`" {
		t.Errorf("error text = %q", text)
	}

	r = callTool(t, srv, "lookup_note", map[string]any{})
	if !r.IsError {
		t.Error("expected error without name")
	}
}

func TestGetRootConfig(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_root_config", nil)
	if r.IsError {
		t.Fatalf("get_root_config failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"note_prefix": "vault"`) {
		t.Errorf("result = %s", resultText(r))
	}
}

func TestRecentLookups(t *testing.T) {
	srv, repo := testServer(t)
	repo.SetFile("vault/a.md", "a")

	r := callTool(t, srv, "recent_lookups", map[string]any{})
	if text := resultText(r); text != "no lookups recorded" {
		t.Errorf("empty history = %q", text)
	}

	callTool(t, srv, "lookup_note", map[string]any{"name": "a"})
	callTool(t, srv, "lookup_note", map[string]any{"name": "b"})

	r = callTool(t, srv, "recent_lookups", map[string]any{"limit": 1})
	var entries []history.Entry
	if err := json.Unmarshal([]byte(resultText(r)), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "b" || entries[0].Outcome != history.OutcomeNotFound {
		t.Errorf("entries = %+v", entries)
	}

	r = callTool(t, srv, "recent_lookups", map[string]any{"query": "a"})
	_ = json.Unmarshal([]byte(resultText(r)), &entries)
	if len(entries) != 1 || entries[0].Name != "a" {
		t.Errorf("filtered entries = %+v", entries)
	}
}

func TestNamingGuide(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_naming_guide", nil)
	if !strings.Contains(resultText(r), "dendron.yml") {
		t.Error("naming guide does not mention the root configuration")
	}

	contents, err := srv.readNamingGuideResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
}
