package resolver

import (
	"context"
	"log/slog"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/isbn"
	"github.com/lehigh-university-libraries/bibresolve/internal/sources"
	"golang.org/x/sync/errgroup"
)

// Aggregator queries every applicable classification source concurrently
// and merges whatever comes back.
type Aggregator struct {
	sources []sources.ClassificationSource
}

// NewAggregator returns an aggregator over srcs.
func NewAggregator(srcs ...sources.ClassificationSource) *Aggregator {
	return &Aggregator{sources: srcs}
}

// ResolveClassifications waits for every applicable source to finish and
// folds the non-nil fragments together in completion order. It returns
// nil when no source contributed a candidate or subject heading.
func (a *Aggregator) ResolveClassifications(ctx context.Context, q biblio.Query) *biblio.ClassificationSet {
	if q.HasISBN() {
		q.ISBN = isbn.Normalize(q.ISBN)
	}

	var applicable []sources.ClassificationSource
	for _, src := range a.sources {
		if src.Applies(q) {
			applicable = append(applicable, src)
		}
	}
	if len(applicable) == 0 {
		slog.Debug("No classification source applies", "isbn", q.ISBN, "title", q.Title)
		return nil
	}

	fragments := make([]*biblio.Fragment, len(applicable))
	completed := make(chan int, len(applicable))

	// Workers never return an error so one failure cannot cancel the rest.
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range applicable {
		g.Go(func() error {
			fragments[i] = src.Classify(gctx, q)
			completed <- i
			return nil
		})
	}
	_ = g.Wait()
	close(completed)

	set := biblio.NewClassificationSet()
	for i := range completed {
		set.Merge(fragments[i])
	}

	if set.IsEmpty() {
		slog.Debug("Classification sources returned nothing", "queried", len(applicable))
		return nil
	}
	slog.Debug("Classifications aggregated",
		"queried", len(applicable),
		"lc", len(set.LC),
		"dewey", len(set.Dewey),
		"udc", len(set.UDC),
		"subjects", len(set.Subjects))
	return set
}
