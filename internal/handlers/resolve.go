package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/extract"
	"github.com/lehigh-university-libraries/bibresolve/internal/resolver"
)

// maxTextBody bounds POST /api/resolve/text bodies.
const maxTextBody = 1 << 20

// HandleResolve answers GET /api/resolve. mode=parallel selects the
// parallel ISBN entry point.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := biblio.Query{
		ISBN:      params.Get("isbn"),
		Title:     params.Get("title"),
		Author:    params.Get("author"),
		Publisher: params.Get("publisher"),
	}

	var rec *biblio.Record
	var err error
	switch mode := params.Get("mode"); mode {
	case "", "standard":
		rec, err = h.resolver.Resolve(r.Context(), q)
	case "parallel":
		if !q.HasISBN() {
			h.writeError(w, "parallel mode requires an isbn", http.StatusBadRequest)
			return
		}
		rec, err = h.resolver.ResolveByISBNParallel(r.Context(), q.ISBN)
	default:
		h.writeError(w, "unknown mode: "+mode, http.StatusBadRequest)
		return
	}

	h.respond(w, rec, err)
}

// HandleResolveText answers POST /api/resolve/text with a plain text body.
func (h *Handler) HandleResolveText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTextBody))
	if err != nil {
		h.writeError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	q, err := h.extractor.ExtractQuery(r.Context(), string(body))
	if errors.Is(err, extract.ErrNoMetadata) {
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.writeError(w, "Extraction failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	rec, err := h.resolver.Resolve(r.Context(), q)
	h.respond(w, rec, err)
}

func (h *Handler) respond(w http.ResponseWriter, rec *biblio.Record, err error) {
	switch {
	case errors.Is(err, resolver.ErrEmptyQuery):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		h.writeError(w, "Resolution failed: "+err.Error(), http.StatusInternalServerError)
	case rec == nil:
		h.writeError(w, "No metadata or classification found", http.StatusNotFound)
	default:
		h.store.Add(rec)
		h.writeJSON(w, http.StatusOK, rec)
	}
}

// summary is a history listing entry.
type summary struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	ISBN           string            `json:"isbn,omitempty"`
	Confidence     biblio.Confidence `json:"confidence"`
	Classification string            `json:"classification"`
	ResolvedAt     string            `json:"resolved_at"`
}

func (h *Handler) HandleResolutions(w http.ResponseWriter, r *http.Request) {
	records := h.store.List()
	list := make([]summary, 0, len(records))
	for _, rec := range records {
		list = append(list, summary{
			ID:             rec.ID,
			Title:          rec.Title,
			ISBN:           rec.ISBN,
			Confidence:     rec.Confidence,
			Classification: rec.Summary(),
			ResolvedAt:     rec.ResolvedAt.Format(time.RFC3339),
		})
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleResolutionDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	rec, ok := h.store.Get(id)
	if !ok {
		h.writeError(w, "Resolution not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// HandleDeleteResolution answers DELETE /api/resolutions/{id}.
func (h *Handler) HandleDeleteResolution(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if !h.store.Delete(id) {
		h.writeError(w, "Resolution not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
