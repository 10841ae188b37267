package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// Base URLs of the national library catalogs.
const (
	BNEBaseURL            = "http://catalogo.bne.es"
	BritishLibraryBaseURL = "https://bnb.data.bl.uk"
	DNBBaseURL            = "https://services.dnb.de"
)

// BNE queries the Biblioteca Nacional de España for Spanish titles.
type BNE struct {
	client *Client
}

// NewBNE returns a locale-gated classification adapter.
func NewBNE(c *Client) *BNE {
	return &BNE{client: c}
}

func (b *BNE) Name() string { return "Biblioteca Nacional de España" }

// Applies reports whether q carries a title that looks Spanish.
func (b *BNE) Applies(q biblio.Query) bool {
	return q.HasTitle() && IsSpanishTitle(q.Title)
}

// Classify returns the first UDC (CDU) number of the matching records.
func (b *BNE) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return b.client.lookup(ctx, b.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		params := url.Values{}
		params.Set("searchtype", "title")
		params.Set("searcharg", q.Title)
		params.Set("format", "json")

		var result struct {
			Records []struct {
				Title   string   `json:"title"`
				Author  string   `json:"author"`
				CDU     string   `json:"cdu"`
				Subject []string `json:"subject"`
			} `json:"records"`
		}
		if err := b.client.getJSON(ctx, "/uhtbin/webcat", params, &result); err != nil {
			return nil, fmt.Errorf("failed to search BNE catalog: %w", err)
		}

		frag := &biblio.Fragment{ISBN: q.ISBN, Language: "spa"}
		for _, r := range result.Records {
			if q.HasAuthor() && !biblio.AuthorMatches(r.Author, q.Author) {
				continue
			}
			if frag.UDC == "" {
				frag.UDC = strings.TrimSpace(r.CDU)
			}
			frag.Subjects = append(frag.Subjects, r.Subject...)
		}
		frag.Subjects = firstN(biblio.DedupStrings(frag.Subjects), 10)
		if !frag.HasClassification() {
			return nil, nil
		}
		return frag, nil
	})
}

// BritishLibrary queries the British National Bibliography SPARQL endpoint
// for English titles.
type BritishLibrary struct {
	client *Client
}

// NewBritishLibrary returns a locale-gated classification adapter.
func NewBritishLibrary(c *Client) *BritishLibrary {
	return &BritishLibrary{client: c}
}

func (b *BritishLibrary) Name() string { return "British Library" }

// Applies reports whether q carries a title that looks English.
func (b *BritishLibrary) Applies(q biblio.Query) bool {
	return q.HasTitle() && IsEnglishTitle(q.Title)
}

const bnbQuery = `PREFIX dcterms: <http://purl.org/dc/terms/>
PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?notation ?label WHERE {
  ?w dcterms:title ?title .
  FILTER(CONTAINS(LCASE(STR(?title)), "%s"))
  ?w dcterms:subject ?s .
  OPTIONAL { ?s skos:notation ?notation . FILTER(STRSTARTS(STR(?s), "http://dewey.info/")) }
  OPTIONAL { ?s rdfs:label ?label }
}
LIMIT 25`

// Classify returns the first Dewey notation and the subject labels of
// records whose title contains q.Title.
func (b *BritishLibrary) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return b.client.lookup(ctx, b.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		form := url.Values{}
		form.Set("query", fmt.Sprintf(bnbQuery, sparqlEscape(strings.ToLower(strings.TrimSpace(q.Title)))))

		body, err := b.client.postForm(ctx, "/sparql", form, "application/sparql-results+json")
		if err != nil {
			return nil, fmt.Errorf("failed to query BNB SPARQL: %w", err)
		}

		var sr struct {
			Results struct {
				Bindings []map[string]map[string]string `json:"bindings"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &sr); err != nil {
			return nil, fmt.Errorf("failed to decode BNB response: %w", err)
		}

		frag := &biblio.Fragment{ISBN: q.ISBN}
		var labels []string
		for _, binding := range sr.Results.Bindings {
			if frag.Dewey == "" {
				frag.Dewey = strings.TrimSpace(binding["notation"]["value"])
			}
			labels = append(labels, binding["label"]["value"])
		}
		frag.Subjects = firstN(biblio.DedupStrings(labels), 10)
		if !frag.HasClassification() {
			return nil, nil
		}
		return frag, nil
	})
}

func sparqlEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ").Replace(s)
}

var dnbSubject = regexp.MustCompile(`<dc:subject[^>]*>([0-9]+.*?)</dc:subject>`)

// DNB queries the Deutsche Nationalbibliothek SRU interface by author.
type DNB struct {
	client *Client
}

// NewDNB returns an author-keyed classification adapter.
func NewDNB(c *Client) *DNB {
	return &DNB{client: c}
}

func (d *DNB) Name() string { return "Deutsche Nationalbibliothek" }

// Applies reports whether q carries an author.
func (d *DNB) Applies(q biblio.Query) bool { return q.HasAuthor() }

// Classify returns the first numeric dc:subject of the author's records.
func (d *DNB) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return d.client.lookup(ctx, d.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		query := "per=" + strings.TrimSpace(q.Author)
		if q.HasTitle() {
			query += " and tit=" + strings.TrimSpace(q.Title)
		}
		params := url.Values{}
		params.Set("version", "1.1")
		params.Set("operation", "searchRetrieve")
		params.Set("query", query)
		params.Set("recordSchema", "oai_dc")
		params.Set("maximumRecords", "10")

		body, err := d.client.get(ctx, "/sru/dnb", params, "application/xml")
		if err != nil {
			return nil, fmt.Errorf("failed to query DNB SRU: %w", err)
		}

		m := dnbSubject.FindStringSubmatch(string(body))
		if m == nil {
			return nil, nil
		}
		return &biblio.Fragment{ISBN: q.ISBN, UDC: strings.TrimSpace(m[1])}, nil
	})
}
