// Package handlers serves the resolver over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/storage"
)

// Resolver is the part of the composer the API needs.
type Resolver interface {
	Resolve(ctx context.Context, q biblio.Query) (*biblio.Record, error)
	ResolveByISBNParallel(ctx context.Context, rawISBN string) (*biblio.Record, error)
}

// Extractor turns free text into a query.
type Extractor interface {
	ExtractQuery(ctx context.Context, text string) (biblio.Query, error)
}

type Handler struct {
	resolver  Resolver
	extractor Extractor
	store     *storage.ResolutionStore
}

// New returns a handler. extractor may be nil, which leaves the text
// endpoint unmounted.
func New(resolver Resolver, extractor Extractor, store *storage.ResolutionStore) *Handler {
	return &Handler{resolver: resolver, extractor: extractor, store: store}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthcheck", h.HandleHealthcheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/resolve", h.HandleResolve)
		if h.extractor != nil {
			r.Post("/resolve/text", h.HandleResolveText)
		}
		r.Get("/resolutions", h.HandleResolutions)
		r.Get("/resolutions/{id}", h.HandleResolutionDetail)
		r.Delete("/resolutions/{id}", h.HandleDeleteResolution)
	})
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Debug(message, "status", code)
	}
	h.writeJSON(w, code, errorResponse{Error: message})
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}
