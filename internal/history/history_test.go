package history

import (
	"context"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM lookups`).Scan(&count); err != nil {
		t.Fatalf("lookups table missing: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	entries := []Entry{
		{Name: "foo", Path: "notes/foo.md", CommitHash: "c1", Outcome: OutcomeFound},
		{Name: "bar", Path: "notes/bar.md", Outcome: OutcomeNotFound},
		{Name: "", Outcome: OutcomeInvalid},
	}
	for _, e := range entries {
		if err := db.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Outcome != OutcomeInvalid || got[1].Name != "bar" {
		t.Errorf("recent = %+v", got)
	}
	if got[1].CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, name := range []string{"project.alpha", "project.beta", "daily.journal"} {
		_ = db.Record(ctx, Entry{Name: name, Outcome: OutcomeFound})
	}

	got, err := db.Search(ctx, "project", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("search results = %d, want 2", len(got))
	}
}

func TestPopular(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, e := range []Entry{
		{Name: "a", Outcome: OutcomeFound},
		{Name: "b", Outcome: OutcomeFound},
		{Name: "b", Outcome: OutcomeFound},
		{Name: "c", Outcome: OutcomeNotFound},
		{Name: "c", Outcome: OutcomeNotFound},
		{Name: "c", Outcome: OutcomeNotFound},
	} {
		_ = db.Record(ctx, e)
	}

	got, err := db.Popular(ctx, 10)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(got) != 2 || got[0].Name != "b" || got[0].Count != 2 || got[1].Name != "a" {
		t.Errorf("popular = %+v, want [b:2 a:1]", got)
	}
}

func TestRecentEmpty(t *testing.T) {
	db := testDB(t)
	got, err := db.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, name := range []string{"a_b", "axb", "100%.done", "100x.done", `dir\name`} {
		_ = db.Record(ctx, Entry{Name: name, Outcome: OutcomeFound})
	}

	tests := []struct {
		query string
		want  string
	}{
		{"a_b", "a_b"},
		{"100%", "100%.done"},
		{`\`, `dir\name`},
	}
	for _, tt := range tests {
		got, err := db.Search(ctx, tt.query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if len(got) != 1 || got[0].Name != tt.want {
			t.Errorf("Search(%q) = %+v, want only %q", tt.query, got, tt.want)
		}
	}
}
