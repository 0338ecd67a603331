// Package resolver walks ref -> commit -> tree -> blob on a hosted repository
// to turn a repository path into file content.
package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/starford/notelookup/internal/apperr"
	"github.com/starford/notelookup/internal/models"
)

// GitAPI is the subset of a hosted-repository git-data API the resolver uses.
// Implementations return raw transport errors; the resolver classifies them.
type GitAPI interface {
	// GetRef returns the object hash a reference such as "heads/main" points to.
	GetRef(ctx context.Context, owner, repo, ref string) (string, error)
	// GetCommit returns the root tree hash of a commit.
	GetCommit(ctx context.Context, owner, repo, commitHash string) (string, error)
	// GetTree lists a tree, expanding subtrees when recursive is set.
	GetTree(ctx context.Context, owner, repo, treeHash string, recursive bool) ([]models.TreeEntry, error)
	// GetBlob returns the base64 encoded content of a blob.
	GetBlob(ctx context.Context, owner, repo, blobHash string) (string, error)
}

// Resolver resolves repository paths against the head of one branch.
// It keeps no state between calls: every resolution re-reads the branch head.
type Resolver struct {
	api    GitAPI
	coords models.Coordinates
}

// New creates a Resolver for the given repository coordinates.
func New(api GitAPI, coords models.Coordinates) *Resolver {
	return &Resolver{api: api, coords: coords}
}

// Coordinates returns the repository coordinates the resolver was built with.
func (r *Resolver) Coordinates() models.Coordinates {
	return r.coords
}

// Head resolves the current commit and root tree of the branch.
func (r *Resolver) Head(ctx context.Context) (models.CommitPointer, error) {
	commitHash, err := r.api.GetRef(ctx, r.coords.Owner, r.coords.Repo, "heads/"+r.coords.Branch)
	if err != nil {
		return models.CommitPointer{}, &apperr.TransportError{Op: "get ref", Err: err}
	}
	treeHash, err := r.api.GetCommit(ctx, r.coords.Owner, r.coords.Repo, commitHash)
	if err != nil {
		return models.CommitPointer{}, &apperr.TransportError{Op: "get commit", Err: err}
	}
	return models.CommitPointer{CommitHash: commitHash, TreeHash: treeHash}, nil
}

// ResolveObject returns the decoded content of the file at path on the
// branch head. path must match a tree entry exactly.
//
// Errors: *apperr.ObjectNotFoundError when no entry matches,
// *apperr.MalformedTreeEntryError when the entry has no object hash,
// *apperr.TransportError when any API call fails.
func (r *Resolver) ResolveObject(ctx context.Context, path string) (*models.ResolvedObject, error) {
	head, err := r.Head(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := r.api.GetTree(ctx, r.coords.Owner, r.coords.Repo, head.TreeHash, true)
	if err != nil {
		return nil, &apperr.TransportError{Op: "get tree", Err: err}
	}

	blobHash, err := findEntry(entries, path)
	if err != nil {
		return nil, err
	}

	encoded, err := r.api.GetBlob(ctx, r.coords.Owner, r.coords.Repo, blobHash)
	if err != nil {
		return nil, &apperr.TransportError{Op: "get blob", Err: err}
	}
	content, err := decodeContent(encoded)
	if err != nil {
		return nil, &apperr.TransportError{Op: "decode blob", Err: fmt.Errorf("%s: %w", path, err)}
	}

	return &models.ResolvedObject{
		CommitPointer: head,
		Path:          path,
		RawContent:    content,
	}, nil
}

func findEntry(entries []models.TreeEntry, path string) (string, error) {
	for _, e := range entries {
		if e.Path != path {
			continue
		}
		if e.ObjectHash == "" {
			return "", &apperr.MalformedTreeEntryError{Path: path}
		}
		return e.ObjectHash, nil
	}
	return "", &apperr.ObjectNotFoundError{Path: path}
}

// decodeContent decodes base64 blob content. Line breaks inserted by the API
// every 60 characters are ignored.
func decodeContent(encoded string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, encoded)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
