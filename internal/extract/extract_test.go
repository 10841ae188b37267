package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/bibresolve/internal/ollama"
	"github.com/lehigh-university-libraries/bibresolve/internal/openai"
	"github.com/lehigh-university-libraries/bibresolve/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	err      error
	got      providers.Config
}

func (f *fakeProvider) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	f.got = config
	return f.response, f.err
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		name     string
		response string
		isbn     string
		title    string
		author   string
	}{
		{
			name:     "plain json",
			response: `{"title":"Dune","author":"Frank Herbert","publisher":"Chilton","isbn":[]}`,
			title:    "Dune",
			author:   "Frank Herbert",
		},
		{
			name:     "code fence and isbn-10",
			response: "```json\n{\"title\":\"Harry Potter\",\"isbn\":[\"0-439-70818-2\"]}\n```",
			isbn:     "9780439708180",
			title:    "Harry Potter",
		},
		{
			name:     "valid isbn preferred",
			response: `{"title":"x","isbn":["12345","9780596520687"]}`,
			isbn:     "9780596520687",
			title:    "x",
		},
		{
			name:     "invalid isbn kept as fallback",
			response: `{"isbn":["12345"]}`,
			isbn:     "12345",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{response: tt.response}
			q, err := New(p, "test-model").ExtractQuery(context.Background(), "some title page")
			require.NoError(t, err)
			assert.Equal(t, tt.isbn, q.ISBN)
			assert.Equal(t, tt.title, q.Title)
			assert.Equal(t, tt.author, q.Author)
			assert.Equal(t, "test-model", p.got.Model)
			assert.Contains(t, p.got.Prompt, "some title page")
			assert.NotEmpty(t, p.got.System)
		})
	}
}

func TestExtractQueryFailures(t *testing.T) {
	_, err := New(&fakeProvider{}, "m").ExtractQuery(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoMetadata)

	_, err = New(&fakeProvider{response: `{"title":"","isbn":[]}`}, "m").ExtractQuery(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoMetadata)

	_, err = New(&fakeProvider{response: "I could not find anything"}, "m").ExtractQuery(context.Background(), "text")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = New(&fakeProvider{err: boom}, "m").ExtractQuery(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}

func TestNewFromName(t *testing.T) {
	e, err := NewFromName("", "")
	require.NoError(t, err)
	assert.Equal(t, ollama.DefaultModel, e.model)

	e, err = NewFromName("OpenAI", "gpt-test")
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", e.model)

	_, err = NewFromName("claude-on-a-toaster", "")
	assert.Error(t, err)
}

func TestOllamaProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mistral", body["model"])
		assert.Equal(t, false, body["stream"])
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response": `{"title":"Dune","author":"Frank Herbert","isbn":["9780441013593"]}`,
		})
	}))
	defer srv.Close()

	provider := &ollama.Ollama{BaseURL: srv.URL, HTTP: srv.Client()}
	q, err := New(provider, "mistral").ExtractQuery(context.Background(), "DUNE / Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "9780441013593", q.ISBN)
	assert.Equal(t, "Dune", q.Title)
}

func TestOpenAIProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Dune\"}"}}]}`))
	}))
	defer srv.Close()

	provider := &openai.OpenAI{BaseURL: srv.URL, APIKey: "secret", HTTP: srv.Client()}
	q, err := New(provider, "gpt-4o").ExtractQuery(context.Background(), "Dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune", q.Title)

	_, err = (&openai.OpenAI{}).ExtractText(context.Background(), providers.Config{})
	assert.ErrorIs(t, err, openai.ErrMissingAPIKey)
}
