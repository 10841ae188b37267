package sources

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBNE(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/uhtbin/webcat", r.URL.Path)
		assert.Equal(t, "title", r.URL.Query().Get("searchtype"))
		_, _ = w.Write([]byte(`{"records": [
			{"author": "Márquez, Gabriel García", "cdu": "821.134.2(862)-31", "subject": ["Novela colombiana"]},
			{"author": "Otro", "cdu": "821.134.2-31"}
		]}`))
	})
	adapter := NewBNE(c)

	assert.True(t, adapter.Applies(biblio.Query{Title: "Cien años de soledad"}))
	assert.False(t, adapter.Applies(biblio.Query{Title: "The Hobbit"}))

	frag := adapter.Classify(context.Background(), biblio.Query{Title: "Cien años de soledad", Author: "garcía"})
	require.NotNil(t, frag)
	assert.Equal(t, "Biblioteca Nacional de España", frag.Source)
	assert.Equal(t, "821.134.2(862)-31", frag.UDC)
	assert.Equal(t, []string{"Novela colombiana"}, frag.Subjects)
}

func TestBritishLibrary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sparql", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.True(t, strings.Contains(r.PostForm.Get("query"), `"the hobbit"`))
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(`{"results": {"bindings": [
			{"label": {"type": "literal", "value": "Fantasy fiction"}},
			{"notation": {"type": "literal", "value": "823.912"}, "label": {"type": "literal", "value": "Middle Earth"}}
		]}}`))
	})
	adapter := NewBritishLibrary(c)

	assert.True(t, adapter.Applies(biblio.Query{Title: "The Hobbit"}))
	assert.False(t, adapter.Applies(biblio.Query{Title: "Cien años de soledad"}))

	frag := adapter.Classify(context.Background(), biblio.Query{Title: "The Hobbit"})
	require.NotNil(t, frag)
	assert.Equal(t, "823.912", frag.Dewey)
	assert.Equal(t, []string{"Fantasy fiction", "Middle Earth"}, frag.Subjects)
}

func TestSparqlEscape(t *testing.T) {
	assert.Equal(t, `say \"hi\" \\ there`, sparqlEscape(`say "hi" \ there`))
}

func TestDNB(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sru/dnb", r.URL.Path)
		assert.Equal(t, "per=Kafka and tit=Der Process", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`<searchRetrieveResponse><records><record><recordData>
			<dc xmlns:dc="http://purl.org/dc/elements/1.1/">
				<dc:subject>Belletristik</dc:subject>
				<dc:subject xsi:type="dnb:ddc-subject-category">830 Deutsche Literatur</dc:subject>
			</dc>
		</recordData></record></records></searchRetrieveResponse>`))
	})
	adapter := NewDNB(c)

	assert.True(t, adapter.Applies(biblio.Query{Author: "Kafka"}))
	assert.False(t, adapter.Applies(biblio.Query{Title: "Der Process"}))

	frag := adapter.Classify(context.Background(), biblio.Query{Title: "Der Process", Author: "Kafka"})
	require.NotNil(t, frag)
	assert.Equal(t, "Deutsche Nationalbibliothek", frag.Source)
	assert.Equal(t, "830 Deutsche Literatur", frag.UDC)
}

func TestDNBNoSubjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<searchRetrieveResponse><numberOfRecords>0</numberOfRecords></searchRetrieveResponse>`))
	})
	assert.Nil(t, NewDNB(c).Classify(context.Background(), biblio.Query{Author: "Nobody"}))
}
