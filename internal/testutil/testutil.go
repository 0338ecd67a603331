// Package testutil provides an in-memory hosted repository for tests.
package testutil

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"sync"
	"testing"

	"github.com/starford/notelookup/internal/models"
)

// Operation names used by FakeRepo for call counting and fault injection.
const (
	OpRef    = "ref"
	OpCommit = "commit"
	OpTree   = "tree"
	OpBlob   = "blob"
)

// Coordinates are the repository coordinates TestRepo serves.
var Coordinates = models.Coordinates{Owner: "octo", Repo: "wiki", Branch: "main"}

// FakeRepo is an in-memory implementation of resolver.GitAPI. Every mutation
// advances the branch to a new commit.
type FakeRepo struct {
	mu            sync.Mutex
	coords        models.Coordinates
	files         map[string]string
	raw           map[string]string
	revision      int
	calls         map[string]int
	fail          map[string]error
	gate          chan struct{}
	lastRecursive bool
}

// NewFakeRepo returns an empty repository for coords.
func NewFakeRepo(coords models.Coordinates) *FakeRepo {
	return &FakeRepo{
		coords: coords,
		files:  make(map[string]string),
		raw:    make(map[string]string),
		calls:  make(map[string]int),
		fail:   make(map[string]error),
	}
}

// TestRepo returns a FakeRepo for Coordinates.
func TestRepo(t *testing.T) *FakeRepo {
	t.Helper()
	return NewFakeRepo(Coordinates)
}

// SetFile stores content at p.
func (f *FakeRepo) SetFile(p, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = content
	f.revision++
}

// SetRawEntry adds a tree entry with an explicit object hash, which may be
// empty to simulate entries without a content address.
func (f *FakeRepo) SetRawEntry(p, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[p] = hash
	f.revision++
}

// FailOn makes every call of op return err. A nil err clears the fault.
func (f *FakeRepo) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Hold blocks GetRef calls until the returned release func is called.
func (f *FakeRepo) Hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times op was invoked.
func (f *FakeRepo) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// LastTreeRecursive reports whether the most recent GetTree asked for recursion.
func (f *FakeRepo) LastTreeRecursive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRecursive
}

// CommitHash returns the hash of the current branch head.
func (f *FakeRepo) CommitHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commitHash()
}

// BlobHash returns the git object hash of content.
func BlobHash(content string) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

func (f *FakeRepo) commitHash() string { return fmt.Sprintf("c%039d", f.revision) }

func (f *FakeRepo) treeHash() string { return fmt.Sprintf("t%039d", f.revision) }

func (f *FakeRepo) enter(ctx context.Context, op, owner, repo string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	gate := f.gate
	f.mu.Unlock()

	if op == OpRef && gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	if owner != f.coords.Owner || repo != f.coords.Repo {
		return fmt.Errorf("404 Not Found: repository %s/%s", owner, repo)
	}
	return nil
}

// GetRef implements resolver.GitAPI.
func (f *FakeRepo) GetRef(ctx context.Context, owner, repo, ref string) (string, error) {
	if err := f.enter(ctx, OpRef, owner, repo); err != nil {
		return "", err
	}
	if ref != "heads/"+f.coords.Branch {
		return "", fmt.Errorf("404 Not Found: ref %s", ref)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commitHash(), nil
}

// GetCommit implements resolver.GitAPI.
func (f *FakeRepo) GetCommit(ctx context.Context, owner, repo, commitHash string) (string, error) {
	if err := f.enter(ctx, OpCommit, owner, repo); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if commitHash != f.commitHash() {
		return "", fmt.Errorf("404 Not Found: commit %s", commitHash)
	}
	return f.treeHash(), nil
}

// GetTree implements resolver.GitAPI. Directory entries are listed alongside
// files; a non-recursive listing only includes top-level entries.
func (f *FakeRepo) GetTree(ctx context.Context, owner, repo, treeHash string, recursive bool) ([]models.TreeEntry, error) {
	if err := f.enter(ctx, OpTree, owner, repo); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRecursive = recursive
	if treeHash != f.treeHash() {
		return nil, fmt.Errorf("404 Not Found: tree %s", treeHash)
	}

	entries := make(map[string]string)
	for p, content := range f.files {
		entries[p] = BlobHash(content)
		for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
			entries[dir] = BlobHash("tree:" + dir)
		}
	}
	for p, hash := range f.raw {
		entries[p] = hash
	}

	out := make([]models.TreeEntry, 0, len(entries))
	for p, hash := range entries {
		if !recursive && path.Dir(p) != "." {
			continue
		}
		out = append(out, models.TreeEntry{Path: p, ObjectHash: hash})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// GetBlob implements resolver.GitAPI. Content is returned base64 encoded with
// a line break every 60 characters, as the GitHub API does.
func (f *FakeRepo) GetBlob(ctx context.Context, owner, repo, blobHash string) (string, error) {
	if err := f.enter(ctx, OpBlob, owner, repo); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, content := range f.files {
		if BlobHash(content) == blobHash {
			return wrap(base64.StdEncoding.EncodeToString([]byte(content)), 60), nil
		}
	}
	return "", fmt.Errorf("404 Not Found: blob %s", blobHash)
}

func wrap(s string, width int) string {
	var out []byte
	for len(s) > width {
		out = append(out, s[:width]...)
		out = append(out, '\n')
		s = s[width:]
	}
	out = append(out, s...)
	if len(out) > 0 {
		out = append(out, '\n')
	}
	return string(out)
}
