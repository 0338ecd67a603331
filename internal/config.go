package internal

import (
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notelookup/internal/models"
	"github.com/starford/notelookup/internal/rootconfig"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Repository RepositoryConfig  `yaml:"repository"`
	History    HistoryConfig     `yaml:"history"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Repository.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RepositoryConfig identifies the repository notes are read from.
type RepositoryConfig struct {
	Owner  string `yaml:"owner"`
	Name   string `yaml:"name"`
	Branch string `yaml:"branch"`
	// Host is the web host used in browse URLs.
	Host string `yaml:"host"`
	// APIURL overrides the REST endpoint for GitHub Enterprise.
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"`
	// RootConfig is the repository path of dendron.yml.
	RootConfig string `yaml:"root_config"`
}

// ApplyEnv fills empty fields from GITHUB_PAT, OWNER, REPO and BRANCH.
func (c *RepositoryConfig) ApplyEnv(getenv func(string) string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = getenv(key)
		}
	}
	fill(&c.Token, "GITHUB_PAT")
	fill(&c.Owner, "OWNER")
	fill(&c.Name, "REPO")
	fill(&c.Branch, "BRANCH")
}

// Validate validates the repository configuration.
func (c *RepositoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Branch, validation.Required),
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.RootConfig, validation.Required),
	)
}

// Coordinates returns the repository coordinates.
func (c *RepositoryConfig) Coordinates() models.Coordinates {
	return models.Coordinates{Owner: c.Owner, Repo: c.Name, Branch: c.Branch}
}

// HistoryConfig holds the lookup history database location.
// An empty Path disables history.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether lookups are recorded.
func (c *HistoryConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Repository: RepositoryConfig{
			Host:       "github.com",
			RootConfig: rootconfig.DefaultPath,
		},
		History: HistoryConfig{
			Path: "./notelookup.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

// ApplyEnv fills empty fields from the process environment.
func (c *Config) ApplyEnv() {
	c.Repository.ApplyEnv(os.Getenv)
}
