package noteservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/notelookup/internal/apperr"
	"github.com/starford/notelookup/internal/resolver"
	"github.com/starford/notelookup/internal/rootconfig"
	"github.com/starford/notelookup/internal/testutil"
)

const (
	selfContainedConfig = "version: 5\ndev:\n  enableSelfContainedVaults: true\npublishing:\n  siteUrl: https://wiki.example.com\n"
	multiVaultConfig    = "version: 5\nworkspace:\n  vaults:\n    - fsPath: vaultA\n    - fsPath: vaultB\n"
)

func testService(t *testing.T, rootConfig string, opts ...Option) (*Service, *testutil.FakeRepo) {
	t.Helper()
	repo := testutil.TestRepo(t)
	if rootConfig != "" {
		repo.SetFile(rootconfig.DefaultPath, rootConfig)
	}
	return New(resolver.New(repo, testutil.Coordinates), opts...), repo
}

func TestFetchNote_SelfContained(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)
	repo.SetFile("notes/foo.md", "---\ntitle: Hello\n---\nBody text")

	note, err := svc.FetchNote(context.Background(), "foo")
	if err != nil {
		t.Fatalf("FetchNote: %v", err)
	}
	if note.Path != "notes/foo.md" {
		t.Errorf("path = %q, want notes/foo.md", note.Path)
	}
	if len(note.Frontmatter) != 1 || note.Frontmatter["title"] != "Hello" {
		t.Errorf("frontmatter = %v", note.Frontmatter)
	}
	if note.Body != "Body text" {
		t.Errorf("body = %q", note.Body)
	}
	if note.URL != "https://github.com/octo/wiki/blob/main/notes/foo.md" {
		t.Errorf("url = %q", note.URL)
	}
	if note.CommitHash != repo.CommitHash() {
		t.Errorf("commit = %q, want %q", note.CommitHash, repo.CommitHash())
	}
	if note.Checksum == "" {
		t.Error("checksum is empty")
	}
}

func TestFetchNote_MultiVaultUsesFirstVault(t *testing.T) {
	svc, repo := testService(t, multiVaultConfig, WithHost("git.example.com"))
	repo.SetFile("vaultA/foo.md", "plain body")
	repo.SetFile("vaultB/bar.md", "other vault")

	note, err := svc.FetchNote(context.Background(), "foo")
	if err != nil {
		t.Fatalf("FetchNote: %v", err)
	}
	if note.Path != "vaultA/foo.md" {
		t.Errorf("path = %q, want vaultA/foo.md", note.Path)
	}
	if note.URL != "https://git.example.com/octo/wiki/blob/main/vaultA/foo.md" {
		t.Errorf("url = %q", note.URL)
	}
	if len(note.Frontmatter) != 0 || note.Body != "plain body" {
		t.Errorf("note = %+v, want empty frontmatter and full body", note)
	}

	_, err = svc.FetchNote(context.Background(), "bar")
	var nf *apperr.ObjectNotFoundError
	if !errors.As(err, &nf) || nf.Path != "vaultA/bar.md" {
		t.Errorf("err = %v, want not found for vaultA/bar.md", err)
	}
}

func TestFetchNote_HierarchicalName(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)
	repo.SetFile("notes/project.alpha.md", "# Alpha")

	note, err := svc.FetchNote(context.Background(), "project.alpha")
	if err != nil {
		t.Fatalf("FetchNote: %v", err)
	}
	if note.Title != "Alpha" {
		t.Errorf("title = %q, want Alpha", note.Title)
	}
}

func TestFetchNote_NotFoundPropagates(t *testing.T) {
	svc, _ := testService(t, selfContainedConfig)

	_, err := svc.FetchNote(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var nf *apperr.ObjectNotFoundError
	if !errors.As(err, &nf) || nf.Path != "notes/missing.md" {
		t.Errorf("err = %#v", err)
	}
}

func TestFetchNote_EmptyName(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)

	for _, name := range []string{"", "   "} {
		_, err := svc.FetchNote(context.Background(), name)
		if !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("FetchNote(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
	if got := repo.Calls(testutil.OpRef); got != 0 {
		t.Errorf("ref calls = %d, want 0", got)
	}
}

func TestFetchNote_ConfigMissing(t *testing.T) {
	svc, _ := testService(t, "")

	_, err := svc.FetchNote(context.Background(), "foo")
	var nf *apperr.ObjectNotFoundError
	if !errors.As(err, &nf) || nf.Path != rootconfig.DefaultPath {
		t.Errorf("err = %v, want not found for %s", err, rootconfig.DefaultPath)
	}
}

func TestRootConfig_CachedAfterFirstSuccess(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)
	repo.SetFile("notes/a.md", "a")
	repo.SetFile("notes/b.md", "b")

	for _, name := range []string{"a", "b", "a"} {
		if _, err := svc.FetchNote(context.Background(), name); err != nil {
			t.Fatalf("FetchNote(%q): %v", name, err)
		}
	}
	// One config resolution plus three note resolutions.
	if got := repo.Calls(testutil.OpRef); got != 4 {
		t.Errorf("ref calls = %d, want 4", got)
	}

	// The cached value survives changes to the remote document.
	repo.SetFile(rootconfig.DefaultPath, multiVaultConfig)
	cfg, err := svc.RootConfig(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.SelfContained() {
		t.Error("root configuration was reloaded")
	}
}

func TestRootConfig_FailureIsNotCached(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)
	cause := errors.New("connection reset")
	repo.FailOn(testutil.OpTree, cause)

	_, err := svc.RootConfig(context.Background())
	if !errors.Is(err, apperr.ErrTransport) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want transport error wrapping cause", err)
	}

	repo.FailOn(testutil.OpTree, nil)
	cfg, err := svc.RootConfig(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if cfg.Publishing.SiteURL != "https://wiki.example.com" {
		t.Errorf("site url = %q", cfg.Publishing.SiteURL)
	}
}

func TestRootConfig_ParseError(t *testing.T) {
	svc, repo := testService(t, "workspace: [broken")

	_, err := svc.RootConfig(context.Background())
	if !errors.Is(err, apperr.ErrConfigParse) {
		t.Fatalf("err = %v, want ErrConfigParse", err)
	}

	repo.SetFile(rootconfig.DefaultPath, selfContainedConfig)
	if _, err := svc.RootConfig(context.Background()); err != nil {
		t.Errorf("after fixing the document: %v", err)
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRootConfig_ConcurrentFirstCallsShareOneFetch(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)
	release := repo.Hold()
	defer release()

	const n = 16
	results := make([]any, n)
	errs := make([]error, n)
	var started, done sync.WaitGroup
	for i := 0; i < n; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = svc.RootConfig(context.Background())
		}(i)
	}
	started.Wait()
	waitFor(t, func() bool { return repo.Calls(testutil.OpRef) > 0 })
	// Give the other callers time to reach the gate if they are not sharing.
	time.Sleep(20 * time.Millisecond)
	if got := repo.Calls(testutil.OpRef); got != 1 {
		t.Errorf("ref calls while held = %d, want 1", got)
	}
	release()
	done.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("caller %d observed a different configuration", i)
		}
	}
	if got := repo.Calls(testutil.OpBlob); got != 1 {
		t.Errorf("config fetches = %d, want 1", got)
	}
}

func TestRootConfig_CancelledCallerDoesNotFailSharers(t *testing.T) {
	svc, repo := testService(t, selfContainedConfig)
	repo.SetFile("notes/foo.md", "hello")
	release := repo.Hold()
	defer release()

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := svc.RootConfig(ctxA)
		errA <- err
	}()
	waitFor(t, func() bool { return repo.Calls(testutil.OpRef) == 1 })

	type result struct {
		body string
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		note, err := svc.FetchNote(context.Background(), "foo")
		if err != nil {
			resB <- result{err: err}
			return
		}
		resB <- result{body: note.Body}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	release()
	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("live caller err = %v", r.err)
		}
		if r.body != "hello" {
			t.Errorf("body = %q, want hello", r.body)
		}
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}
	if got := repo.Calls(testutil.OpBlob); got != 2 {
		t.Errorf("blob fetches = %d, want 2 (config and note)", got)
	}
}

func TestRootConfig_CustomPath(t *testing.T) {
	repo := testutil.TestRepo(t)
	repo.SetFile("config/dendron.yml", selfContainedConfig)
	svc := New(resolver.New(repo, testutil.Coordinates), WithRootConfigPath("config/dendron.yml"))

	if _, err := svc.RootConfig(context.Background()); err != nil {
		t.Fatalf("RootConfig: %v", err)
	}
}
