package lookup

import (
	"strings"
)

// Text renders cards as plain text for terminal output.
func Text(cards []Card) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		switch c.Kind {
		case KindFrontmatter:
			b.WriteString("# " + c.Title + "\n")
			if c.URL != "" {
				b.WriteString(c.URL + "\n")
			}
			if c.Description != "" {
				b.WriteString(c.Description + "\n")
			}
			b.WriteString("\n")
			for _, f := range c.Fields {
				b.WriteString(f.Name + ": " + f.Value + "\n")
			}
		default:
			b.WriteString(c.Description)
			if !strings.HasSuffix(c.Description, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
