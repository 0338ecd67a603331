package internal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notelookup/internal/apperr"
	"github.com/starford/notelookup/internal/lookup"
	"github.com/starford/notelookup/internal/rootconfig"
	"github.com/starford/notelookup/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Repository.Owner = testutil.Coordinates.Owner
	cfg.Repository.Name = testutil.Coordinates.Repo
	cfg.Repository.Branch = testutil.Coordinates.Branch
	cfg.Repository.Token = "pat"
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestLookupCommand(t *testing.T) {
	repo := testutil.TestRepo(t)
	repo.SetFile(rootconfig.DefaultPath, "dev:\n  enableSelfContainedVaults: true\n")
	repo.SetFile("notes/foo.md", "---\ntitle: Foo\n---\nhello")

	var out bytes.Buffer
	err := Lookup(context.Background(), "foo", lookup.ModeFull,
		WithConfig(testConfig(t)), WithGitAPI(repo), WithOutput(&out))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	for _, want := range []string{"# Foo\n", "GitHub URL: https://github.com/octo/wiki/blob/main/notes/foo.md", "hello"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestLookupCommand_NotFound(t *testing.T) {
	repo := testutil.TestRepo(t)
	repo.SetFile(rootconfig.DefaultPath, "dev:\n  enableSelfContainedVaults: true\n")

	err := Lookup(context.Background(), "ghost", lookup.ModeFull,
		WithConfig(testConfig(t)), WithGitAPI(repo), WithOutput(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.HasPrefix(err.Error(), "Couldn't find note `ghost`") {
		t.Errorf("err = %q", err.Error())
	}
}

func TestLookupCommand_RequiresConfig(t *testing.T) {
	if err := Lookup(context.Background(), "foo", lookup.ModeFull); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestReadyHandler(t *testing.T) {
	repo := testutil.TestRepo(t)
	app, err := newApplication([]Option{WithConfig(testConfig(t)), WithGitAPI(repo)})
	if err != nil {
		t.Fatal(err)
	}
	st, err := newStack(app, newLogger(&bytes.Buffer{}, 0))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	h := readyHandler(st.lookups)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready without root config = %d, want 503", w.Code)
	}

	repo.SetFile(rootconfig.DefaultPath, "dev:\n  enableSelfContainedVaults: true\n")
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ready = %d, want 200", w.Code)
	}
}
