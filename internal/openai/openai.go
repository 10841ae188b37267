package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/bibresolve/internal/providers"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// ErrMissingAPIKey is returned when OPENAI_API_KEY is not set.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// OpenAI is a provider for the chat completions API
type OpenAI struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New returns a new OpenAI provider keyed from the environment
func New() *OpenAI {
	return &OpenAI{
		BaseURL: "https://api.openai.com",
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		HTTP:    providers.DefaultHTTPClient,
	}
}

// ExtractText runs the prompt as a single chat completion
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if o.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	messages := []map[string]string{}
	if config.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": config.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": config.Prompt})

	requestBody, err := json.Marshal(map[string]any{
		"model":           config.Model,
		"messages":        messages,
		"temperature":     config.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/v1/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}
