// Package parser splits Markdown notes into YAML front matter and body.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds the output of parsing a Markdown note.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Tags        []string
	Title       string
}

// Parse extracts front matter, body, tags and title from raw Markdown.
// Frontmatter is never nil.
func Parse(content string) *Result {
	fm, body := splitFrontmatter(content)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}
}

// splitFrontmatter separates a YAML block opened by a "---" line at the very
// start of content and closed by the next "---" line. The body is everything
// after the closing line, verbatim. Without a complete block, or when the
// block is not a YAML mapping, the whole content is body.
func splitFrontmatter(content string) (map[string]any, string) {
	empty := map[string]any{}

	first, rest, ok := cutLine(content)
	if !ok || first != delim {
		return empty, content
	}

	var block string
	var body string
	found := false
	for offset := 0; offset <= len(rest); {
		line, next, more := cutLine(rest[offset:])
		if line == delim {
			block = rest[:offset]
			body = next
			found = true
			break
		}
		if !more {
			break
		}
		offset = len(rest) - len(next)
	}
	if !found {
		return empty, content
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return empty, content
	}
	if fm == nil {
		fm = empty
	}
	return fm, body
}

// cutLine returns the first line of s without its terminator, the text after
// the terminator, and whether a terminator was present.
func cutLine(s string) (line, rest string, ok bool) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", false
	}
	return strings.TrimSuffix(s[:i], "\r"), s[i+1:], true
}

// extractTags collects tags from the front matter "tags" field and inline #tags.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the front matter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
