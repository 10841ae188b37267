package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorToleratesTimeout(t *testing.T) {
	slow := &fakeClassifier{name: "Slow", frag: &biblio.Fragment{LC: "QA76"}, delay: 500 * time.Millisecond}
	fast := &fakeClassifier{name: "Fast", frag: &biblio.Fragment{Dewey: "005.1"}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	set := NewAggregator(slow, fast).ResolveClassifications(ctx, biblio.Query{ISBN: "9780596520687"})

	require.NotNil(t, set)
	assert.Empty(t, set.LC)
	assert.Equal(t, []string{"005.1"}, set.Dewey)
	assert.Equal(t, []string{"Fast"}, set.Sources)
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestAggregatorWaitsForEverySource(t *testing.T) {
	first := &fakeClassifier{name: "First", frag: &biblio.Fragment{LC: "QA76"}, delay: 60 * time.Millisecond}
	second := &fakeClassifier{name: "Second", frag: &biblio.Fragment{LC: "QA76", Dewey: "005.1"}}
	failing := &fakeClassifier{name: "Failing"}

	set := NewAggregator(first, second, failing).ResolveClassifications(context.Background(), biblio.Query{ISBN: "9780596520687"})

	require.NotNil(t, set)
	assert.Equal(t, []string{"QA76"}, set.LC)
	// Completion order: the delayed source merges last.
	assert.Equal(t, []string{"Second", "First"}, set.Sources)
}

func TestAggregatorSelectsApplicableSources(t *testing.T) {
	byISBN := &fakeClassifier{name: "ISBN", frag: &biblio.Fragment{LC: "QA76"}, applies: isbnKeyed}
	byTitle := &fakeClassifier{name: "Title", frag: &biblio.Fragment{Dewey: "005.1"}, applies: titleKeyed}
	agg := NewAggregator(byISBN, byTitle)

	set := agg.ResolveClassifications(context.Background(), biblio.Query{ISBN: "0596520689"})
	require.NotNil(t, set)
	assert.Equal(t, []string{"ISBN"}, set.Sources)
	assert.Equal(t, int32(0), byTitle.calls.Load())
	assert.Equal(t, "9780596520687", byISBN.queries[0].ISBN)

	set = agg.ResolveClassifications(context.Background(), biblio.Query{Title: "Programming Collective Intelligence"})
	require.NotNil(t, set)
	assert.Equal(t, []string{"Title"}, set.Sources)
	assert.Equal(t, int32(1), byISBN.calls.Load())
}

func TestAggregatorEmpty(t *testing.T) {
	nothing := &fakeClassifier{name: "Nothing"}
	sourceOnly := &fakeClassifier{name: "SourceOnly", frag: &biblio.Fragment{}}

	assert.Nil(t, NewAggregator(nothing, sourceOnly).ResolveClassifications(context.Background(), biblio.Query{ISBN: "9780596520687"}))
	assert.Nil(t, NewAggregator().ResolveClassifications(context.Background(), biblio.Query{ISBN: "9780596520687"}))

	titleOnly := &fakeClassifier{name: "Title", frag: &biblio.Fragment{LC: "QA76"}, applies: titleKeyed}
	assert.Nil(t, NewAggregator(titleOnly).ResolveClassifications(context.Background(), biblio.Query{ISBN: "9780596520687"}))
	assert.Equal(t, int32(0), titleOnly.calls.Load())
}
