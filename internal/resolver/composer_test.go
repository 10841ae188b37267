package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveByISBNEndToEnd(t *testing.T) {
	meta := &fakeMetadata{name: "Open Library Books API", frag: &biblio.Fragment{Title: "Harry Potter...", LC: ""}}
	classify := &fakeClassifier{name: "WorldCat Classify", frag: &biblio.Fragment{Dewey: "823.914"}, applies: isbnKeyed}

	composer := NewComposer(NewCascade(meta), NewAggregator(classify))
	rec, err := composer.Resolve(context.Background(), biblio.Query{ISBN: "9780439708180"})

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Harry Potter...", rec.Title)
	assert.Equal(t, "9780439708180", rec.ISBN)
	assert.Equal(t, "823.914", rec.Dewey)
	assert.Empty(t, rec.LC)
	assert.Equal(t, biblio.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, []string{"basic metadata", "WorldCat Classify"}, rec.Sources)
	assert.Equal(t, StrategyEnhanced, rec.SearchStrategy)
	assert.Equal(t, "Open Library Books API", rec.MetadataSource)
}

func TestResolveTotalFailure(t *testing.T) {
	composer := NewComposer(
		NewCascade(&fakeMetadata{name: "A"}, &fakeMetadata{name: "B"}),
		NewAggregator(&fakeClassifier{name: "C"}, &fakeClassifier{name: "D"}),
	)

	rec, err := composer.ResolveByISBN(context.Background(), "9780439708180")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = composer.ResolveByTitleAuthor(context.Background(), "Nothing", "Nobody")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = composer.ResolveByISBNParallel(context.Background(), "9780439708180")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestResolveRejectsBlankQuery(t *testing.T) {
	meta := &fakeMetadata{name: "A"}
	classify := &fakeClassifier{name: "B"}
	composer := NewComposer(NewCascade(meta), NewAggregator(classify))

	_, err := composer.Resolve(context.Background(), biblio.Query{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = composer.ResolveByISBNParallel(context.Background(), "--")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	assert.Equal(t, int32(0), meta.calls.Load())
	assert.Equal(t, int32(0), classify.calls.Load())
}

func TestResolveDegradesWithoutMetadata(t *testing.T) {
	classify := &fakeClassifier{name: "OpenLibrary Service", frag: &biblio.Fragment{LC: "QA76.73"}, applies: isbnKeyed}
	composer := NewComposer(NewCascade(&fakeMetadata{name: "A"}), NewAggregator(classify))

	rec, err := composer.ResolveByISBN(context.Background(), "0-596-52068-9")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, UnidentifiedTitle, rec.Title)
	assert.Equal(t, "9780596520687", rec.ISBN)
	assert.Equal(t, "QA76.73", rec.LC)
	assert.Equal(t, []string{"OpenLibrary Service"}, rec.Sources)
	assert.Equal(t, StrategyClassificationOnly, rec.SearchStrategy)
	assert.Equal(t, biblio.ConfidenceMedium, rec.Confidence)
}

func TestResolveMetadataOnly(t *testing.T) {
	meta := &fakeMetadata{name: "Google Books", frag: &biblio.Fragment{Title: "Dune", Author: "Frank Herbert", Year: 1965}}
	composer := NewComposer(NewCascade(meta), NewAggregator(&fakeClassifier{name: "none"}))

	rec, err := composer.ResolveByISBN(context.Background(), "9780441013593")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Dune", rec.Title)
	assert.Equal(t, 1965, rec.Year)
	assert.Equal(t, []string{"basic metadata"}, rec.Sources)
	assert.Equal(t, biblio.ConfidenceLow, rec.Confidence)
}

func TestResolveArbitratesAgainstBasicValue(t *testing.T) {
	meta := &fakeMetadata{name: "Open Library Editions", frag: &biblio.Fragment{Title: "Dune", LC: "PS3558", Dewey: "813.54"}}
	lc := &fakeClassifier{name: "Library of Congress", frag: &biblio.Fragment{LC: "PS3558.E63 D8"}, applies: isbnKeyed}
	dewey := &fakeClassifier{name: "WorldCat Classify", frag: &biblio.Fragment{Dewey: "813"}, applies: isbnKeyed}

	composer := NewComposer(NewCascade(meta), NewAggregator(lc, dewey))
	rec, err := composer.ResolveByISBN(context.Background(), "9780441013593")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "PS3558.E63 D8", rec.LC)
	assert.Equal(t, "813.54", rec.Dewey)
	// Basic "PS3558" and LoC "PS3558.E63 D8" are compatible and from different sources.
	assert.Equal(t, biblio.ConfidenceHigh, rec.Confidence)
}

func TestResolveByTitleAuthor(t *testing.T) {
	meta := &fakeMetadata{name: "never", frag: &biblio.Fragment{Title: "wrong"}}
	loc := &fakeClassifier{name: "Library of Congress", frag: &biblio.Fragment{LC: "PS3558.E63", Subjects: []string{"Science fiction"}}, applies: titleKeyed}
	harvard := &fakeClassifier{name: "Harvard Library", frag: &biblio.Fragment{LC: "PS3558.E63 D8"}, applies: titleKeyed}
	byISBN := &fakeClassifier{name: "ISBN only", frag: &biblio.Fragment{LC: "X"}, applies: isbnKeyed}

	composer := NewComposer(NewCascade(meta), NewAggregator(loc, harvard, byISBN))
	rec, err := composer.ResolveByTitleAuthor(context.Background(), "Dune", "Frank Herbert")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Dune", rec.Title)
	assert.Equal(t, "Frank Herbert", rec.Author)
	assert.Empty(t, rec.ISBN)
	assert.Equal(t, StrategyTitleAuthor, rec.SearchStrategy)
	assert.NotContains(t, rec.Sources, BasicMetadataMarker)
	assert.ElementsMatch(t, []string{"Library of Congress", "Harvard Library"}, rec.Sources)
	assert.Equal(t, []string{"Science fiction"}, rec.Subjects)
	assert.Equal(t, biblio.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, int32(0), meta.calls.Load())
	assert.Equal(t, int32(0), byISBN.calls.Load())
}

func TestResolveByISBNParallel(t *testing.T) {
	meta := &fakeMetadata{name: "Open Library Books API", frag: &biblio.Fragment{Title: "Dune", Author: "Frank Herbert"}}
	olService := &fakeClassifier{name: "OpenLibrary Service", frag: &biblio.Fragment{Dewey: "813.54"}, applies: isbnKeyed}
	loc := &fakeClassifier{name: "Library of Congress", frag: &biblio.Fragment{LC: "PS3558.E63"}, applies: titleKeyed}

	composer := NewComposer(NewCascade(meta), NewAggregator(olService, loc))
	rec, err := composer.ResolveByISBNParallel(context.Background(), "9780441013593")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "813.54", rec.Dewey)
	assert.Equal(t, "PS3558.E63", rec.LC)
	assert.Equal(t, []string{"basic metadata", "OpenLibrary Service", "Library of Congress"}, rec.Sources)
	assert.Equal(t, StrategyParallelEnhanced, rec.SearchStrategy)

	require.Len(t, loc.queries, 1)
	assert.Equal(t, "Dune", loc.queries[0].Title)
	assert.Equal(t, "Frank Herbert", loc.queries[0].Author)
	assert.Empty(t, loc.queries[0].ISBN)
}

func TestResolveStateTransitions(t *testing.T) {
	var mu sync.Mutex
	var states []State
	observe := WithStateObserver(func(mode string, s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	})

	meta := &fakeMetadata{name: "A", frag: &biblio.Fragment{Title: "Dune"}}
	composer := NewComposer(NewCascade(meta), NewAggregator(), observe)
	_, err := composer.ResolveByISBN(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.Equal(t, []State{StateStarted, StateMetadataPhase, StateClassificationPhase, StateMerged, StateComposed}, states)

	states = nil
	empty := NewComposer(NewCascade(), NewAggregator(), observe)
	_, err = empty.ResolveByTitleAuthor(context.Background(), "Dune", "")
	require.NoError(t, err)
	assert.Equal(t, []State{StateStarted, StateMetadataPhase, StateClassificationPhase, StateEmpty}, states)
}

func TestResolveRecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	classify := &fakeClassifier{name: "x", frag: &biblio.Fragment{LC: "QA76"}}
	composer := NewComposer(NewCascade(), NewAggregator(classify), WithMetrics(m))

	_, err := composer.ResolveByTitleAuthor(context.Background(), "Anything", "")
	require.NoError(t, err)
	_, err = composer.ResolveByTitleAuthor(context.Background(), "", "")
	require.ErrorIs(t, err, ErrEmptyQuery)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("title", "MEDIUM")))
}

func TestResolveDropsUnusableISBN(t *testing.T) {
	meta := &fakeMetadata{name: "Open Library Books API", frag: &biblio.Fragment{Title: "Some Random Book"}}
	byISBN := &fakeClassifier{name: "OpenLibrary Service", frag: &biblio.Fragment{Dewey: "000"}, applies: isbnKeyed}
	byTitle := &fakeClassifier{name: "Library of Congress", frag: &biblio.Fragment{LC: "PS3558.E63"}, applies: titleKeyed}
	composer := NewComposer(NewCascade(meta), NewAggregator(byISBN, byTitle))

	rec, err := composer.Resolve(context.Background(), biblio.Query{ISBN: "n/a", Title: "Dune"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Dune", rec.Title)
	assert.Empty(t, rec.ISBN)
	assert.Equal(t, StrategyTitleAuthor, rec.SearchStrategy)
	assert.Equal(t, "PS3558.E63", rec.LC)
	assert.Equal(t, int32(1), byTitle.calls.Load())

	for _, raw := range []string{"n/a", "---", " "} {
		_, err = composer.ResolveByISBN(context.Background(), raw)
		assert.ErrorIs(t, err, ErrEmptyQuery, raw)
		_, err = composer.ResolveByISBNParallel(context.Background(), raw)
		assert.ErrorIs(t, err, ErrEmptyQuery, raw)
	}

	assert.Equal(t, int32(0), meta.calls.Load())
	assert.Equal(t, int32(0), byISBN.calls.Load())
}
