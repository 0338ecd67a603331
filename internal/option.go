package internal

import (
	"io"

	"github.com/starford/notelookup/internal/resolver"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	git    resolver.GitAPI
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGitAPI replaces the GitHub client, e.g. with an in-memory fake.
func WithGitAPI(api resolver.GitAPI) Option {
	return func(a *application) {
		a.git = api
	}
}

// WithOutput sets where command output is written; the default is stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
