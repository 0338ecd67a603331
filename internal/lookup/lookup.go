// Package lookup turns note names into presentable lookup results for the
// HTTP, MCP and command-line surfaces, recording each lookup.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notelookup/internal/apperr"
	"github.com/starford/notelookup/internal/history"
	"github.com/starford/notelookup/internal/models"
	"github.com/starford/notelookup/internal/rootconfig"
)

// Mode selects which cards a lookup returns.
type Mode string

// Lookup modes.
const (
	ModeFull        Mode = "full"
	ModeFrontmatter Mode = "fm"
	ModeBody        Mode = "body"
)

// ErrInvalidMode is returned by ParseMode for unknown modes.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode parses s; the empty string is ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeFrontmatter, ModeBody:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w %q: want full, fm or body", ErrInvalidMode, s)
}

// NoteFetcher is the note source a Service presents.
type NoteFetcher interface {
	FetchNote(ctx context.Context, name string) (*models.Note, error)
	RootConfig(ctx context.Context) (*rootconfig.Config, error)
}

// Recorder persists lookup entries.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Listener is called after every lookup.
type Listener func(e history.Entry)

// Result is a presented note.
type Result struct {
	Note  *models.Note `json:"note"`
	Mode  Mode         `json:"mode"`
	Cards []Card       `json:"cards"`
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every lookup in r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithListener registers fn to be called after every lookup.
func WithListener(fn Listener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, fn) }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service performs lookups.
type Service struct {
	notes     NoteFetcher
	recorder  Recorder
	listeners []Listener
	logger    *slog.Logger
}

// NewService creates a lookup service over notes.
func NewService(notes NoteFetcher, opts ...Option) *Service {
	s := &Service{notes: notes, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup fetches the note called name and renders it for mode.
func (s *Service) Lookup(ctx context.Context, name string, mode Mode) (*Result, error) {
	note, err := s.notes.FetchNote(ctx, name)
	s.finish(ctx, name, note, err)
	if err != nil {
		return nil, err
	}

	cfg, err := s.notes.RootConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Note:  note,
		Mode:  mode,
		Cards: BuildCards(note, cfg, mode),
	}, nil
}

// RootConfig exposes the repository root configuration.
func (s *Service) RootConfig(ctx context.Context) (*rootconfig.Config, error) {
	return s.notes.RootConfig(ctx)
}

func (s *Service) finish(ctx context.Context, name string, note *models.Note, err error) {
	e := history.Entry{
		Name:      name,
		Outcome:   Outcome(err),
		CreatedAt: time.Now().UTC(),
	}
	if note != nil {
		e.Path = note.Path
		e.CommitHash = note.CommitHash
	}
	var nf *apperr.ObjectNotFoundError
	if errors.As(err, &nf) {
		e.Path = nf.Path
	}

	switch e.Outcome {
	case history.OutcomeFound:
		s.logger.Info("lookup",
			slog.String("name", name),
			slog.String("path", e.Path),
			slog.String("commit", e.CommitHash))
	case history.OutcomeNotFound, history.OutcomeInvalid:
		s.logger.Info("lookup miss",
			slog.String("name", name),
			slog.String("outcome", e.Outcome),
			slog.String("error", err.Error()))
	default:
		s.logger.Error("lookup failed",
			slog.String("name", name),
			slog.String("error", err.Error()))
	}

	if s.recorder != nil {
		if rerr := s.recorder.Record(ctx, e); rerr != nil {
			s.logger.Warn("lookup: record history failed", slog.String("error", rerr.Error()))
		}
	}
	for _, fn := range s.listeners {
		fn(e)
	}
}

// Outcome classifies a lookup error as a history outcome.
func Outcome(err error) string {
	switch {
	case err == nil:
		return history.OutcomeFound
	case errors.Is(err, apperr.ErrNotFound):
		return history.OutcomeNotFound
	case errors.Is(err, apperr.ErrInvalidName):
		return history.OutcomeInvalid
	default:
		return history.OutcomeError
	}
}

// UserMessage returns the message shown to a user whose lookup of name
// failed with err.
func UserMessage(name string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidName):
		return "Query cannot be empty."
	case errors.Is(err, ErrInvalidMode):
		return err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return fmt.Sprintf("Couldn't find note `%s`", name)
	case errors.Is(err, apperr.ErrMalformedEntry):
		return fmt.Sprintf("Note `%s` is not a regular file in the repository", name)
	default:
		return fmt.Sprintf("Couldn't look up note `%s`", name)
	}
}
