// Package resolver orchestrates the source adapters: a sequential cascade
// for basic metadata, a concurrent aggregation for classifications, and the
// composer that turns both into one record.
package resolver

import (
	"context"
	"log/slog"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/isbn"
	"github.com/lehigh-university-libraries/bibresolve/internal/sources"
)

// Cascade tries metadata sources in priority order until one answers.
type Cascade struct {
	sources []sources.MetadataSource
}

// NewCascade returns a cascade over srcs in the given order.
func NewCascade(srcs ...sources.MetadataSource) *Cascade {
	return &Cascade{sources: srcs}
}

// ResolveBasicMetadata returns the first non-nil fragment for the
// normalized form of rawISBN. Later sources are never called once an
// earlier one succeeds. It returns nil when every source comes up empty.
func (c *Cascade) ResolveBasicMetadata(ctx context.Context, rawISBN string) *biblio.Fragment {
	id := isbn.Normalize(rawISBN)
	for i, src := range c.sources {
		if ctx.Err() != nil {
			slog.Debug("Cascade stopped", "isbn", id, "err", ctx.Err())
			return nil
		}
		if frag := src.LookupISBN(ctx, id); frag != nil {
			slog.Debug("Basic metadata found", "isbn", id, "source", src.Name(), "position", i+1)
			return frag
		}
	}
	slog.Debug("No basic metadata found", "isbn", id, "sources_tried", len(c.sources))
	return nil
}
