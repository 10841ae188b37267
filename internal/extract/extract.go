// Package extract turns free text, such as OCR of a title page or a
// citation, into a resolver query by asking an LLM for structured fields.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/gemini"
	"github.com/lehigh-university-libraries/bibresolve/internal/isbn"
	"github.com/lehigh-university-libraries/bibresolve/internal/ollama"
	"github.com/lehigh-university-libraries/bibresolve/internal/openai"
	"github.com/lehigh-university-libraries/bibresolve/internal/providers"
)

// ErrNoMetadata is returned when the model found nothing to search on.
var ErrNoMetadata = errors.New("no bibliographic metadata found in text")

const systemPrompt = `You are an expert bibliographic cataloger. Extract identifying metadata for a single book from the text you are given, which may be OCR of a title page, a citation or a catalog note.

Extract:
  - title: full title including any subtitle
  - author: primary author name
  - publisher: publisher name
  - isbn: every ISBN present, as an array

Use "" or [] for anything not present. Do not invent or infer information.

Respond with ONLY a JSON object:

{"title": "...", "author": "...", "publisher": "...", "isbn": ["..."]}`

// Fields is the JSON object the model is asked to return.
type Fields struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Publisher string   `json:"publisher"`
	ISBN      []string `json:"isbn"`
}

// Extractor asks a provider to identify the book described by some text.
type Extractor struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// New returns an extractor over provider.
func New(provider providers.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model, temperature: 0.1}
}

// NewFromName builds an extractor for a named backend: ollama, openai or
// gemini. A blank model picks the backend's default.
func NewFromName(name, model string) (*Extractor, error) {
	var provider providers.Provider
	var defaultModel string
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ollama":
		provider, defaultModel = ollama.New(), ollama.DefaultModel
	case "openai":
		provider, defaultModel = openai.New(), openai.DefaultModel
	case "gemini":
		provider, defaultModel = gemini.New(), gemini.DefaultModel
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	if model == "" {
		model = defaultModel
	}
	return New(provider, model), nil
}

// ExtractQuery returns the query described by text. The first valid ISBN
// wins; when none validates the first non-empty one is kept.
func (e *Extractor) ExtractQuery(ctx context.Context, text string) (biblio.Query, error) {
	if strings.TrimSpace(text) == "" {
		return biblio.Query{}, ErrNoMetadata
	}

	resp, err := e.provider.ExtractText(ctx, providers.Config{
		Model:       e.model,
		Temperature: e.temperature,
		System:      systemPrompt,
		Prompt:      "Text:\n\n" + text,
	})
	if err != nil {
		return biblio.Query{}, fmt.Errorf("failed to extract metadata: %w", err)
	}

	fields, err := ParseFields(resp)
	if err != nil {
		return biblio.Query{}, err
	}

	q := biblio.Query{
		Title:     strings.TrimSpace(fields.Title),
		Author:    strings.TrimSpace(fields.Author),
		Publisher: strings.TrimSpace(fields.Publisher),
		ISBN:      pickISBN(fields.ISBN),
	}
	if q.IsBlank() {
		return biblio.Query{}, ErrNoMetadata
	}

	slog.Debug("Extracted query", "model", e.model, "isbn", q.ISBN, "title", q.Title, "author", q.Author)
	return q, nil
}

// ParseFields decodes a model response, tolerating markdown code fences
// and prose around the JSON object.
func ParseFields(resp string) (Fields, error) {
	var fields Fields
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start < 0 || end < start {
		return fields, fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(resp[start:end+1]), &fields); err != nil {
		return fields, fmt.Errorf("failed to parse model response: %w", err)
	}
	return fields, nil
}

func pickISBN(candidates []string) string {
	fallback := ""
	for _, c := range candidates {
		n := isbn.Normalize(c)
		if n == "" {
			continue
		}
		if isbn.IsValid(n) {
			return n
		}
		if fallback == "" {
			fallback = n
		}
	}
	return fallback
}
