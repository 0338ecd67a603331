// Package github implements resolver.GitAPI on top of the GitHub git data API.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/starford/notelookup/internal/models"
	"github.com/starford/notelookup/internal/resolver"
)

// Options configures a Client.
type Options struct {
	// Token is sent as a bearer credential on every request.
	Token string
	// BaseURL overrides the REST endpoint, e.g. https://ghe.example.com/api/v3/.
	BaseURL string
	// HTTPClient is the transport; nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Client adapts a go-github client to resolver.GitAPI.
type Client struct {
	gh *gh.Client
}

var _ resolver.GitAPI = (*Client)(nil)

// New creates a GitHub API client.
func New(opts Options) (*Client, error) {
	c := gh.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		c = c.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		c.BaseURL = u
	}
	return &Client{gh: c}, nil
}

// GetRef returns the object hash ref points to.
func (c *Client) GetRef(ctx context.Context, owner, repo, ref string) (string, error) {
	r, _, err := c.gh.Git.GetRef(ctx, owner, repo, ref)
	if err != nil {
		return "", err
	}
	sha := r.GetObject().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("github: ref %s has no object", ref)
	}
	return sha, nil
}

// GetCommit returns the root tree hash of a commit.
func (c *Client) GetCommit(ctx context.Context, owner, repo, commitHash string) (string, error) {
	commit, _, err := c.gh.Git.GetCommit(ctx, owner, repo, commitHash)
	if err != nil {
		return "", err
	}
	sha := commit.GetTree().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("github: commit %s has no tree", commitHash)
	}
	return sha, nil
}

// GetTree lists a tree. Entries the API reports without a SHA keep an empty
// ObjectHash.
func (c *Client) GetTree(ctx context.Context, owner, repo, treeHash string, recursive bool) ([]models.TreeEntry, error) {
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, treeHash, recursive)
	if err != nil {
		return nil, err
	}
	out := make([]models.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e == nil {
			continue
		}
		out = append(out, models.TreeEntry{Path: e.GetPath(), ObjectHash: e.GetSHA()})
	}
	return out, nil
}

// GetBlob returns blob content base64 encoded, whatever encoding the API used.
func (c *Client) GetBlob(ctx context.Context, owner, repo, blobHash string) (string, error) {
	blob, _, err := c.gh.Git.GetBlob(ctx, owner, repo, blobHash)
	if err != nil {
		return "", err
	}
	switch enc := blob.GetEncoding(); enc {
	case "base64", "":
		return blob.GetContent(), nil
	case "utf-8":
		return base64.StdEncoding.EncodeToString([]byte(blob.GetContent())), nil
	default:
		return "", fmt.Errorf("github: blob %s has unsupported encoding %q", blobHash, enc)
	}
}

// IsRateLimit reports whether err was caused by a GitHub rate limit.
func IsRateLimit(err error) bool {
	var rl *gh.RateLimitError
	var arl *gh.AbuseRateLimitError
	return errors.As(err, &rl) || errors.As(err, &arl)
}
