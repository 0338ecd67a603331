package mcpserver

// NamingGuide explains how note names map to repository files so that
// LLM consumers can pick the right name for lookup_note.
const NamingGuide = `# Note Naming Guide

Notes are Markdown files in a Git repository. A note is looked up by its
**name**, never by its file path.

## Names

- Names are dot-separated hierarchies: ` + "`" + `project.alpha.design` + "`" + `.
- The file for a name is ` + "`" + `<prefix>/<name>.md` + "`" + `. Dots stay in the file name;
  they are not turned into directories.
- Names are matched exactly and case-sensitively.

## Prefix

The prefix comes from ` + "`" + `dendron.yml` + "`" + ` at the repository root:

1. With ` + "`" + `dev.enableSelfContainedVaults: true` + "`" + ` the prefix is ` + "`" + `notes` + "`" + `.
2. Otherwise it is the ` + "`" + `fsPath` + "`" + ` of the first entry in ` + "`" + `workspace.vaults` + "`" + `.
   Other vaults are not searched.

Call ` + "`" + `get_root_config` + "`" + ` to see the prefix in effect.

## Modes

- ` + "`" + `full` + "`" + ` (default): front matter card and body card.
- ` + "`" + `fm` + "`" + `: front matter only.
- ` + "`" + `body` + "`" + `: body only. Bodies over 4096 characters are truncated.

## Example

` + "```" + `
lookup_note {"name": "project.alpha", "mode": "fm"}
` + "```" + `

resolves ` + "`" + `notes/project.alpha.md` + "`" + ` in a self-contained repository.
`
