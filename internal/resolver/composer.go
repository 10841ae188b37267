package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/isbn"
	"github.com/lehigh-university-libraries/bibresolve/internal/metrics"
	"github.com/lehigh-university-libraries/bibresolve/internal/sources"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyQuery is returned when every query field is blank.
var ErrEmptyQuery = errors.New("query needs an isbn, title, author or publisher")

const (
	// UnidentifiedTitle stands in for the title when no source named the book.
	UnidentifiedTitle = "Unidentified book"
	// BasicMetadataMarker leads the sources list when basic metadata was found.
	BasicMetadataMarker = "basic metadata"
)

// Search strategies reported on records.
const (
	StrategyEnhanced           = "basic metadata + enhanced classifications"
	StrategyClassificationOnly = "classifications only"
	StrategyTitleAuthor        = "title/author search"
	StrategyParallelEnhanced   = "parallel: basic metadata + enhanced classifications"
	StrategyParallelOnly       = "parallel: classifications only"
)

// State is a step in the life of one resolution.
type State string

const (
	StateStarted             State = "STARTED"
	StateMetadataPhase       State = "METADATA_PHASE"
	StateClassificationPhase State = "CLASSIFICATION_PHASE"
	StateMerged              State = "MERGED"
	StateComposed            State = "COMPOSED"
	StateEmpty               State = "EMPTY"
)

// Composer turns a query into a resolved record.
type Composer struct {
	cascade    *Cascade
	aggregator *Aggregator
	metrics    *metrics.Metrics
	observe    func(mode string, s State)
	now        func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithMetrics records resolution outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Composer) { c.metrics = m }
}

// WithStateObserver calls fn on every state a resolution enters.
func WithStateObserver(fn func(mode string, s State)) Option {
	return func(c *Composer) { c.observe = fn }
}

// NewComposer returns a composer over the given cascade and aggregator.
func NewComposer(cascade *Cascade, aggregator *Aggregator, opts ...Option) *Composer {
	c := &Composer{
		cascade:    cascade,
		aggregator: aggregator,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds a composer from every adapter in reg.
func New(reg *sources.Registry, opts ...Option) *Composer {
	return NewComposer(NewCascade(reg.Metadata...), NewAggregator(reg.Classifications...), opts...)
}

// resolution tracks the state of one call to the composer.
type resolution struct {
	mode     string
	state    State
	start    time.Time
	composer *Composer
}

func (c *Composer) begin(mode string) *resolution {
	r := &resolution{mode: mode, start: time.Now(), composer: c}
	r.advance(StateStarted)
	return r
}

func (r *resolution) advance(next State) {
	slog.Debug("Resolution state", "mode", r.mode, "from", r.state, "to", next)
	r.state = next
	if r.composer.observe != nil {
		r.composer.observe(r.mode, next)
	}
}

func (r *resolution) empty() (*biblio.Record, error) {
	r.advance(StateEmpty)
	r.composer.metrics.ObserveResolution(r.mode, string(StateEmpty), time.Since(r.start))
	slog.Info("Resolution found nothing", "mode", r.mode, "duration", time.Since(r.start))
	return nil, nil
}

func (r *resolution) composed(rec *biblio.Record) (*biblio.Record, error) {
	r.advance(StateComposed)
	r.composer.metrics.ObserveResolution(r.mode, string(rec.Confidence), time.Since(r.start))
	slog.Info("Resolution composed",
		"mode", r.mode,
		"title", rec.Title,
		"confidence", rec.Confidence,
		"sources", len(rec.Sources),
		"duration", time.Since(r.start))
	return rec, nil
}

// Resolve answers q. An ISBN routes to the cascade and the ISBN-keyed
// classification sources, run concurrently; otherwise only the
// title/author-keyed classification sources are queried. An ISBN that
// cleans to nothing is dropped before routing. A nil record with a nil
// error means nothing was found.
func (c *Composer) Resolve(ctx context.Context, q biblio.Query) (*biblio.Record, error) {
	q.ISBN = isbn.Normalize(q.ISBN)
	if q.IsBlank() {
		return nil, ErrEmptyQuery
	}
	if q.HasISBN() {
		return c.resolveISBN(ctx, q)
	}
	return c.resolveTitleAuthor(ctx, q)
}

// ResolveByISBN resolves a bare identifier.
func (c *Composer) ResolveByISBN(ctx context.Context, rawISBN string) (*biblio.Record, error) {
	return c.Resolve(ctx, biblio.Query{ISBN: rawISBN})
}

// ResolveByTitleAuthor resolves free text. author may be empty.
func (c *Composer) ResolveByTitleAuthor(ctx context.Context, title, author string) (*biblio.Record, error) {
	return c.Resolve(ctx, biblio.Query{Title: title, Author: author})
}

// resolveISBN expects q.ISBN to be normalized already.
func (c *Composer) resolveISBN(ctx context.Context, q biblio.Query) (*biblio.Record, error) {
	r := c.begin("isbn")

	var basic *biblio.Fragment
	var set *biblio.ClassificationSet

	g, gctx := errgroup.WithContext(ctx)
	r.advance(StateMetadataPhase)
	g.Go(func() error {
		basic = c.cascade.ResolveBasicMetadata(gctx, q.ISBN)
		return nil
	})
	r.advance(StateClassificationPhase)
	g.Go(func() error {
		set = c.aggregator.ResolveClassifications(gctx, biblio.Query{ISBN: q.ISBN})
		return nil
	})
	_ = g.Wait()

	if basic == nil && set == nil {
		return r.empty()
	}
	r.advance(StateMerged)

	strategy := StrategyEnhanced
	if basic == nil {
		strategy = StrategyClassificationOnly
	}
	return r.composed(c.compose(q, basic, set, strategy))
}

func (c *Composer) resolveTitleAuthor(ctx context.Context, q biblio.Query) (*biblio.Record, error) {
	r := c.begin("title")

	// The caller supplied the descriptive fields, so there is no cascade.
	r.advance(StateMetadataPhase)
	r.advance(StateClassificationPhase)
	set := c.aggregator.ResolveClassifications(ctx, biblio.Query{
		Title:     q.Title,
		Author:    q.Author,
		Publisher: q.Publisher,
	})
	if set == nil {
		return r.empty()
	}
	r.advance(StateMerged)
	return r.composed(c.compose(q, nil, set, StrategyTitleAuthor))
}

// ResolveByISBNParallel runs the cascade and the ISBN-keyed sources
// concurrently and, as soon as the cascade names a title, also queries the
// title/author-keyed sources. It trades extra calls for completeness.
func (c *Composer) ResolveByISBNParallel(ctx context.Context, rawISBN string) (*biblio.Record, error) {
	q := biblio.Query{ISBN: isbn.Normalize(rawISBN)}
	if q.IsBlank() {
		return nil, ErrEmptyQuery
	}
	r := c.begin("parallel")

	var basic *biblio.Fragment
	var byISBN, byTitle *biblio.ClassificationSet

	g, gctx := errgroup.WithContext(ctx)
	r.advance(StateMetadataPhase)
	g.Go(func() error {
		basic = c.cascade.ResolveBasicMetadata(gctx, q.ISBN)
		if basic != nil && strings.TrimSpace(basic.Title) != "" {
			byTitle = c.aggregator.ResolveClassifications(gctx, biblio.Query{
				Title:     basic.Title,
				Author:    basic.Author,
				Publisher: basic.Publisher,
			})
		}
		return nil
	})
	r.advance(StateClassificationPhase)
	g.Go(func() error {
		byISBN = c.aggregator.ResolveClassifications(gctx, q)
		return nil
	})
	_ = g.Wait()

	var set *biblio.ClassificationSet
	if byISBN != nil || byTitle != nil {
		set = biblio.NewClassificationSet()
		set.MergeSet(byISBN)
		set.MergeSet(byTitle)
	}

	if basic == nil && set == nil {
		return r.empty()
	}
	r.advance(StateMerged)

	strategy := StrategyParallelEnhanced
	if basic == nil {
		strategy = StrategyParallelOnly
	}
	return r.composed(c.compose(q, basic, set, strategy))
}

// compose assembles the record. basic and set may each be nil but not both.
func (c *Composer) compose(q biblio.Query, basic *biblio.Fragment, set *biblio.ClassificationSet, strategy string) *biblio.Record {
	rec := &biblio.Record{
		Title:          strings.TrimSpace(q.Title),
		Author:         strings.TrimSpace(q.Author),
		ISBN:           q.ISBN,
		Publisher:      strings.TrimSpace(q.Publisher),
		SearchStrategy: strategy,
		ResolvedAt:     c.now(),
	}

	var subjects []string
	if basic != nil {
		rec.Title = firstNonBlank(basic.Title, rec.Title)
		rec.Author = firstNonBlank(basic.Author, rec.Author)
		rec.Publisher = firstNonBlank(basic.Publisher, rec.Publisher)
		rec.Year = basic.Year
		rec.Pages = basic.Pages
		rec.Language = basic.Language
		rec.Description = basic.Description
		rec.CoverURL = basic.CoverURL
		rec.MetadataSource = basic.Source
		rec.Sources = append(rec.Sources, BasicMetadataMarker)
		subjects = append(subjects, basic.Subjects...)
	}
	if rec.Title == "" {
		rec.Title = UnidentifiedTitle
	}

	chosen := make(map[biblio.Scheme]string, len(biblio.Schemes))
	for _, s := range biblio.Schemes {
		chosen[s] = biblio.PickBest(strings.TrimSpace(basic.Value(s)), set.Candidates(s))
	}
	rec.LC = chosen[biblio.SchemeLC]
	rec.Dewey = chosen[biblio.SchemeDewey]
	rec.UDC = chosen[biblio.SchemeUDC]

	if set != nil {
		subjects = append(subjects, set.Subjects...)
		rec.Sources = append(rec.Sources, set.Sources...)
	}
	rec.Subjects = biblio.DedupStrings(subjects)
	rec.Sources = biblio.DedupStrings(rec.Sources)
	rec.Confidence = biblio.Assess(basic, set, chosen)

	return rec
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
