package lookup

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/notelookup/internal/models"
	"github.com/starford/notelookup/internal/rootconfig"
)

const (
	maxBodyLen   = 4096
	truncatedLen = 4000
	truncatedTag = "\n\n...\n_*(truncated)*_"
)

// Field is a name/value pair shown on a front matter card.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Card is one presentable block of a lookup result.
type Card struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title,omitempty"`
	URL         string  `json:"url,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// Card kinds.
const (
	KindFrontmatter = "frontmatter"
	KindBody        = "body"
)

// BuildCards renders note as cards for mode. cfg may be nil, in which case
// no published URL is set.
func BuildCards(note *models.Note, cfg *rootconfig.Config, mode Mode) []Card {
	var cards []Card
	if mode != ModeBody {
		cards = append(cards, frontmatterCard(note, cfg))
	}
	if mode != ModeFrontmatter {
		cards = append(cards, bodyCard(note))
	}
	return cards
}

func frontmatterCard(note *models.Note, cfg *rootconfig.Config) Card {
	fm := note.Frontmatter

	keys := make([]string, 0, len(fm))
	for k := range fm {
		if k == "desc" || k == "config" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys)+1)
	for _, k := range keys {
		v, ok := scalarString(fm[k])
		if !ok || v == "" {
			continue
		}
		fields = append(fields, Field{Name: k, Value: v, Inline: true})
	}
	fields = append(fields, Field{Name: "GitHub URL", Value: note.URL})

	card := Card{
		Kind:   KindFrontmatter,
		Title:  note.Title,
		Fields: fields,
	}
	if card.Title == "" {
		card.Title = note.Name
	}
	if desc, ok := fm["desc"].(string); ok && desc != "" {
		card.Description = "_*" + desc + "*_"
	}
	if cfg != nil {
		id, _ := scalarString(fm["id"])
		card.URL = cfg.PublishedURL(id)
	}
	return card
}

func bodyCard(note *models.Note) Card {
	return Card{Kind: KindBody, Description: truncateBody(note.Body)}
}

// truncateBody shortens bodies longer than maxBodyLen runes.
func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyLen {
		return body
	}
	return string(runes[:truncatedLen]) + truncatedTag
}

// scalarString formats scalar front matter values and flat lists of them.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(x), true
	case time.Time:
		return x.Format(time.RFC3339), true
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := scalarString(item)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), true
	default:
		return "", false
	}
}
