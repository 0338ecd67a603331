// Package rootconfig decodes the repository root configuration (dendron.yml)
// that tells notelookup where notes live and where they are published.
package rootconfig

import (
	"errors"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/notelookup/internal/apperr"
)

// DefaultPath is the repository path of the root configuration document.
const DefaultPath = "dendron.yml"

// SelfContainedPrefix is the note directory used by self-contained layouts.
const SelfContainedPrefix = "notes"

// Config is the subset of dendron.yml notelookup understands.
type Config struct {
	Version    int              `yaml:"version" json:"version,omitempty"`
	Dev        DevConfig        `yaml:"dev" json:"dev"`
	Workspace  WorkspaceConfig  `yaml:"workspace" json:"workspace"`
	Publishing PublishingConfig `yaml:"publishing" json:"publishing"`
	// Site is the pre-v5 location of the publishing settings.
	Site PublishingConfig `yaml:"site" json:"-"`
}

// DevConfig holds feature flags.
type DevConfig struct {
	EnableSelfContainedVaults bool `yaml:"enableSelfContainedVaults" json:"enable_self_contained_vaults"`
}

// WorkspaceConfig lists the configured vaults.
type WorkspaceConfig struct {
	Vaults []Vault `yaml:"vaults" json:"vaults"`
}

// Vault is a filesystem root for notes.
type Vault struct {
	FSPath string `yaml:"fsPath" json:"fs_path"`
	Name   string `yaml:"name" json:"name,omitempty"`
}

// PublishingConfig is the published-site metadata used for presentation.
type PublishingConfig struct {
	SiteURL   string `yaml:"siteUrl" json:"site_url,omitempty"`
	SiteIndex string `yaml:"siteIndex" json:"site_index,omitempty"`
}

// Parse decodes content fetched from file. Failures are reported as
// *apperr.ConfigParseError.
func Parse(file, content string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, &apperr.ConfigParseError{Path: file, Err: err}
	}
	if !cfg.Dev.EnableSelfContainedVaults {
		if len(cfg.Workspace.Vaults) == 0 {
			return nil, &apperr.ConfigParseError{Path: file, Err: errors.New("workspace.vaults is empty")}
		}
		if strings.TrimSpace(cfg.Workspace.Vaults[0].FSPath) == "" {
			return nil, &apperr.ConfigParseError{Path: file, Err: errors.New("workspace.vaults[0].fsPath is empty")}
		}
	}
	if cfg.Publishing.SiteURL == "" && cfg.Publishing.SiteIndex == "" {
		cfg.Publishing = cfg.Site
	}
	return &cfg, nil
}

// SelfContained reports whether notes resolve directly under "notes".
func (c *Config) SelfContained() bool {
	return c.Dev.EnableSelfContainedVaults
}

// NotePrefix returns the directory notes are stored under. Only the first
// vault is consulted in multi-vault layouts. A vault at the repository root
// yields "".
func (c *Config) NotePrefix() string {
	if c.SelfContained() || len(c.Workspace.Vaults) == 0 {
		return SelfContainedPrefix
	}
	p := path.Clean(strings.ReplaceAll(c.Workspace.Vaults[0].FSPath, "\\", "/"))
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// NotePath returns the repository path of the note called name.
func (c *Config) NotePath(name string) string {
	if prefix := c.NotePrefix(); prefix != "" {
		return prefix + "/" + name + ".md"
	}
	return name + ".md"
}

// PublishedURL returns the published-site URL of the note with the given id,
// or "" when no site URL is configured.
func (c *Config) PublishedURL(id string) string {
	if c.Publishing.SiteURL == "" || id == "" {
		return ""
	}
	return strings.TrimSuffix(c.Publishing.SiteURL, "/") + "/notes/" + id
}
