package api

import (
	"github.com/starford/notelookup/internal/history"
	"github.com/starford/notelookup/internal/lookup"
	"github.com/starford/notelookup/internal/rootconfig"
)

// NoteResponse is the response body of a note lookup.
type NoteResponse struct {
	Name        string         `json:"name" example:"project.alpha" validate:"required"`
	Path        string         `json:"path" example:"notes/project.alpha.md" validate:"required"`
	URL         string         `json:"url" example:"https://github.com/octo/wiki/blob/main/notes/project.alpha.md" validate:"required"`
	CommitHash  string         `json:"commit_hash" validate:"required"`
	Checksum    string         `json:"checksum" example:"abc123..." validate:"required"`
	Title       string         `json:"title,omitempty" example:"Alpha"`
	Tags        []string       `json:"tags,omitempty"`
	Frontmatter map[string]any `json:"frontmatter" validate:"required"`
	Body        string         `json:"body"`
	Mode        lookup.Mode    `json:"mode" example:"full" validate:"required"`
	Cards       []lookup.Card  `json:"cards" validate:"required"`
}

func newNoteResponse(res *lookup.Result) NoteResponse {
	n := res.Note
	return NoteResponse{
		Name:        n.Name,
		Path:        n.Path,
		URL:         n.URL,
		CommitHash:  n.CommitHash,
		Checksum:    n.Checksum,
		Title:       n.Title,
		Tags:        n.Tags,
		Frontmatter: n.Frontmatter,
		Body:        n.Body,
		Mode:        res.Mode,
		Cards:       res.Cards,
	}
}

// RootConfigResponse is the decoded repository root configuration.
type RootConfigResponse struct {
	*rootconfig.Config
	NotePrefix string `json:"note_prefix" example:"notes"`
}

// LookupListResponse wraps lookup history entries.
type LookupListResponse struct {
	Lookups []history.Entry `json:"lookups" validate:"required"`
}

// PopularResponse wraps the most frequently found notes.
type PopularResponse struct {
	Popular []history.Popular `json:"popular" validate:"required"`
}
