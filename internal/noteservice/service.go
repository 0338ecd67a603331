// Package noteservice resolves note names to parsed notes in the remote
// repository, using the repository's root configuration to locate them.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/starford/notelookup/internal/apperr"
	"github.com/starford/notelookup/internal/checksum"
	"github.com/starford/notelookup/internal/models"
	"github.com/starford/notelookup/internal/parser"
	"github.com/starford/notelookup/internal/rootconfig"
)

// DefaultHost is the web host used to build browse URLs.
const DefaultHost = "github.com"

// ObjectResolver resolves repository paths to content.
type ObjectResolver interface {
	ResolveObject(ctx context.Context, path string) (*models.ResolvedObject, error)
	Coordinates() models.Coordinates
}

// Option configures a Service.
type Option func(*Service)

// WithHost sets the web host used in browse URLs.
func WithHost(host string) Option {
	return func(s *Service) {
		if host != "" {
			s.host = host
		}
	}
}

// WithRootConfigPath sets the repository path of the root configuration.
func WithRootConfigPath(p string) Option {
	return func(s *Service) {
		if p != "" {
			s.configPath = p
		}
	}
}

// Service fetches notes. The root configuration is resolved on first use and
// kept for the lifetime of the Service; concurrent first callers share one
// resolution. A failed resolution is not cached.
type Service struct {
	resolver   ObjectResolver
	host       string
	configPath string

	root  atomic.Pointer[rootconfig.Config]
	group singleflight.Group
}

// New creates a note service on top of r.
func New(r ObjectResolver, opts ...Option) *Service {
	s := &Service{
		resolver:   r,
		host:       DefaultHost,
		configPath: rootconfig.DefaultPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coordinates returns the repository the service reads from.
func (s *Service) Coordinates() models.Coordinates {
	return s.resolver.Coordinates()
}

// RootConfig returns the root configuration, resolving it on first call.
// The shared resolution is detached from any single caller: a cancelled
// caller returns its own ctx error while the others keep waiting.
func (s *Service) RootConfig(ctx context.Context) (*rootconfig.Config, error) {
	if cfg := s.root.Load(); cfg != nil {
		return cfg, nil
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(s.configPath, func() (any, error) {
		if cfg := s.root.Load(); cfg != nil {
			return cfg, nil
		}
		obj, err := s.resolver.ResolveObject(fetchCtx, s.configPath)
		if err != nil {
			return nil, err
		}
		cfg, err := rootconfig.Parse(s.configPath, obj.RawContent)
		if err != nil {
			return nil, err
		}
		s.root.Store(cfg)
		return cfg, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*rootconfig.Config), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FetchNote resolves the note called name and splits its front matter.
// A missing note fails with an error matching apperr.ErrNotFound.
func (s *Service) FetchNote(ctx context.Context, name string) (*models.Note, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is empty", apperr.ErrInvalidName)
	}

	cfg, err := s.RootConfig(ctx)
	if err != nil {
		return nil, err
	}

	notePath := cfg.NotePath(name)
	obj, err := s.resolver.ResolveObject(ctx, notePath)
	if err != nil {
		return nil, err
	}

	res := parser.Parse(obj.RawContent)
	return &models.Note{
		Name:        name,
		Path:        notePath,
		URL:         s.BrowseURL(notePath),
		CommitHash:  obj.CommitHash,
		Frontmatter: res.Frontmatter,
		Body:        res.Body,
		Title:       res.Title,
		Tags:        res.Tags,
		Content:     obj.RawContent,
		Checksum:    checksum.Sum([]byte(obj.RawContent)),
	}, nil
}

// BrowseURL returns the web URL of a repository path on the configured branch.
// It is assembled from configuration only and is not checked for existence.
func (s *Service) BrowseURL(repoPath string) string {
	c := s.resolver.Coordinates()
	return fmt.Sprintf("https://%s/%s/%s/blob/%s/%s", s.host, c.Owner, c.Repo, c.Branch, repoPath)
}
