// Package providers defines the contract shared by the LLM backends used to
// pull a query out of free text.
package providers

import (
	"context"
	"net/http"
	"time"
)

// Config represents the configuration for one completion
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// System is sent ahead of Prompt by backends that support it.
	System string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// DefaultHTTPClient is shared by the HTTP based backends.
var DefaultHTTPClient = &http.Client{Timeout: 2 * time.Minute}
