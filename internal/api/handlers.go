package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notelookup/internal/apperr"
	"github.com/starford/notelookup/internal/checksum"
	"github.com/starford/notelookup/internal/github"
	"github.com/starford/notelookup/internal/history"
	"github.com/starford/notelookup/internal/lookup"
)

// HistoryReader is the read side of the lookup history.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Search(ctx context.Context, query string, limit int) ([]history.Entry, error)
	Popular(ctx context.Context, limit int) ([]history.Popular, error)
}

// Handler holds API route handlers.
type Handler struct {
	lookups *lookup.Service
	history HistoryReader
}

// NewHandler creates a new Handler.
func NewHandler(lookups *lookup.Service, hist HistoryReader) *Handler {
	return &Handler{lookups: lookups, history: hist}
}

// noteName extracts the note name from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients.
func noteName(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// statusFor maps a lookup error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidName), errors.Is(err, lookup.ErrInvalidMode):
		return http.StatusBadRequest
	// Checked before ErrTransport, which wraps cancellations.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case github.IsRateLimit(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrMalformedEntry), errors.Is(err, apperr.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// etagMatches reports whether an If-None-Match header names checksum.
// The header may list several tags, weak or bare, or be "*".
func etagMatches(header, checksum string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		tag = strings.TrimPrefix(tag, "W/")
		if tag != "" && strings.Trim(tag, `"`) == checksum {
			return true
		}
	}
	return false
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Look up a note by name
//	@Tags			notes
//	@Produce		json
//	@Param			name	path		string	true	"Dot-separated note name"
//	@Param			mode	query		string	false	"Presentation mode"	Enums(full, fm, body)
//	@Param			If-None-Match	header	string	false	"Checksum from a previous ETag"
//	@Success		200		{object}	NoteResponse
//	@Success		304		"Note unchanged"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{name} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	mode, err := lookup.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.lookups.Lookup(r.Context(), name, mode)
	if err != nil {
		status := statusFor(err)
		switch {
		case errors.Is(err, context.Canceled):
			slog.Debug("lookup abandoned", slog.String("name", name), slog.String("error", err.Error()))
		case status >= http.StatusInternalServerError:
			slog.Error("lookup failed", slog.String("name", name), slog.String("error", err.Error()))
		}
		writeError(w, status, lookup.UserMessage(name, err))
		return
	}

	etag := checksum.ETag(res.Note.Checksum)
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), res.Note.Checksum) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, newNoteResponse(res))
}

// RootConfig handles GET /api/config.
//
//	@Summary		Get the decoded repository root configuration
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	RootConfigResponse
//	@Failure		404	{object}	errResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/config [get]
func (h *Handler) RootConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.lookups.RootConfig(r.Context())
	if err != nil {
		status := statusFor(err)
		if status != http.StatusNotFound {
			slog.Error("root config failed", slog.String("error", err.Error()))
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RootConfigResponse{Config: cfg, NotePrefix: cfg.NotePrefix()})
}

// Lookups handles GET /api/lookups.
//
//	@Summary		List recent lookups, optionally filtered by name
//	@Tags			history
//	@Produce		json
//	@Param			q		query		string	false	"Substring of the note name"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	LookupListResponse
//	@Security		BearerAuth
//	@Router			/lookups [get]
func (h *Handler) Lookups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		entries []history.Entry
		err     error
	)
	if q != "" {
		entries, err = h.history.Search(r.Context(), q, limit)
	} else {
		entries, err = h.history.Recent(r.Context(), limit)
	}
	if err != nil {
		slog.Error("list lookups failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, LookupListResponse{Lookups: entries})
}

// Popular handles GET /api/lookups/popular.
//
//	@Summary		List the most frequently found notes
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	PopularResponse
//	@Security		BearerAuth
//	@Router			/lookups/popular [get]
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	popular, err := h.history.Popular(r.Context(), limit)
	if err != nil {
		slog.Error("popular lookups failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if popular == nil {
		popular = []history.Popular{}
	}
	writeJSON(w, http.StatusOK, PopularResponse{Popular: popular})
}
