// Package models defines the domain types for notelookup.
package models

// Coordinates identify the remote repository notes are resolved against.
type Coordinates struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

// CommitPointer is the head of the branch observed by a single resolution.
type CommitPointer struct {
	CommitHash string `json:"commit_hash"`
	TreeHash   string `json:"tree_hash"`
}

// TreeEntry is one path of a recursively expanded tree listing.
// ObjectHash is empty when the remote reported no content address.
type TreeEntry struct {
	Path       string `json:"path"`
	ObjectHash string `json:"object_hash,omitempty"`
}

// ResolvedObject is the decoded content of a blob together with the commit
// and tree it was resolved from.
type ResolvedObject struct {
	CommitPointer
	Path       string `json:"path"`
	RawContent string `json:"-"`
}

// Note is a resolved markdown note split into front matter and body.
type Note struct {
	Name        string         `json:"name"`
	Path        string         `json:"path"`
	URL         string         `json:"url"`
	CommitHash  string         `json:"commit_hash"`
	Frontmatter map[string]any `json:"frontmatter"`
	Body        string         `json:"body"`
	Title       string         `json:"title,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Content     string         `json:"-"`
	Checksum    string         `json:"checksum"`
}
