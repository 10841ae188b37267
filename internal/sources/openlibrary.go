package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// OpenLibraryBaseURL is the public Open Library host.
const OpenLibraryBaseURL = "https://openlibrary.org"

// openLibraryData is the Books API response for jscmd=data, keyed by
// "ISBN:<n>".
type openLibraryData map[string]struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	NumberOfPages int    `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	Cover struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
	Classifications map[string][]string `json:"classifications"`
}

func fetchOpenLibraryData(ctx context.Context, c *Client, isbn string) (*biblio.Fragment, error) {
	params := url.Values{}
	params.Set("bibkeys", "ISBN:"+isbn)
	params.Set("jscmd", "data")
	params.Set("format", "json")

	var result openLibraryData
	if err := c.getJSON(ctx, "/api/books", params, &result); err != nil {
		return nil, fmt.Errorf("failed to query Open Library books API: %w", err)
	}

	book, ok := result["ISBN:"+isbn]
	if !ok {
		return nil, nil
	}

	frag := &biblio.Fragment{
		ISBN:     isbn,
		Title:    strings.TrimSpace(book.Title),
		Year:     extractYear(book.PublishDate),
		Pages:    book.NumberOfPages,
		CoverURL: book.Cover.Medium,
		LC:       first(book.Classifications["lc_classifications"]),
		Dewey:    first(book.Classifications["dewey_decimal_class"]),
		UDC:      first(append(book.Classifications["udc"], book.Classifications["cdu"]...)),
	}
	if len(book.Authors) > 0 {
		frag.Author = book.Authors[0].Name
	}
	if len(book.Publishers) > 0 {
		frag.Publisher = book.Publishers[0].Name
	}
	for _, s := range book.Subjects {
		frag.Subjects = append(frag.Subjects, s.Name)
	}
	frag.Subjects = firstN(frag.Subjects, 10)
	return frag, nil
}

// OpenLibraryBooks reads the Open Library Books API.
type OpenLibraryBooks struct {
	client *Client
}

// NewOpenLibraryBooks returns a metadata adapter for the Books API.
func NewOpenLibraryBooks(c *Client) *OpenLibraryBooks {
	return &OpenLibraryBooks{client: c}
}

func (o *OpenLibraryBooks) Name() string { return "Open Library Books API" }

// LookupISBN returns basic metadata for isbn.
func (o *OpenLibraryBooks) LookupISBN(ctx context.Context, isbn string) *biblio.Fragment {
	return o.client.lookup(ctx, o.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		frag, err := fetchOpenLibraryData(ctx, o.client, isbn)
		if err != nil || frag == nil || frag.Title == "" {
			return nil, err
		}
		return frag, nil
	})
}

// OpenLibraryClassifications reads only the classification block of the
// Books API response.
type OpenLibraryClassifications struct {
	client *Client
}

// NewOpenLibraryClassifications returns an ISBN-keyed classification adapter.
func NewOpenLibraryClassifications(c *Client) *OpenLibraryClassifications {
	return &OpenLibraryClassifications{client: c}
}

func (o *OpenLibraryClassifications) Name() string { return "OpenLibrary Service" }

// Applies reports whether q carries an ISBN.
func (o *OpenLibraryClassifications) Applies(q biblio.Query) bool { return q.HasISBN() }

// Classify returns Open Library's LC, Dewey and UDC values for q.ISBN.
func (o *OpenLibraryClassifications) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return o.client.lookup(ctx, o.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		data, err := fetchOpenLibraryData(ctx, o.client, q.ISBN)
		if err != nil || data == nil {
			return nil, err
		}
		frag := &biblio.Fragment{
			ISBN:     q.ISBN,
			LC:       data.LC,
			Dewey:    data.Dewey,
			UDC:      data.UDC,
			Subjects: data.Subjects,
		}
		if !frag.HasClassification() {
			return nil, nil
		}
		return frag, nil
	})
}

// OpenLibraryEdition reads the edition record at /isbn/<n>.json.
type OpenLibraryEdition struct {
	client *Client
}

// NewOpenLibraryEdition returns a metadata adapter for edition records.
func NewOpenLibraryEdition(c *Client) *OpenLibraryEdition {
	return &OpenLibraryEdition{client: c}
}

func (o *OpenLibraryEdition) Name() string { return "Open Library Editions" }

// LookupISBN returns basic metadata for isbn.
func (o *OpenLibraryEdition) LookupISBN(ctx context.Context, isbn string) *biblio.Fragment {
	return o.client.lookup(ctx, o.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		var edition struct {
			Title             string   `json:"title"`
			Publishers        []string `json:"publishers"`
			PublishDate       string   `json:"publish_date"`
			NumberOfPages     int      `json:"number_of_pages"`
			LCClassifications []string `json:"lc_classifications"`
			DeweyDecimalClass []string `json:"dewey_decimal_class"`
			Subjects          []string `json:"subjects"`
			Covers            []int    `json:"covers"`
			ByStatement       string   `json:"by_statement"`
			Languages         []struct {
				Key string `json:"key"`
			} `json:"languages"`
		}
		if err := o.client.getJSON(ctx, "/isbn/"+url.PathEscape(isbn)+".json", nil, &edition); err != nil {
			return nil, fmt.Errorf("failed to fetch Open Library edition: %w", err)
		}
		if strings.TrimSpace(edition.Title) == "" {
			return nil, nil
		}

		frag := &biblio.Fragment{
			ISBN:      isbn,
			Title:     strings.TrimSpace(edition.Title),
			Author:    strings.TrimSuffix(strings.TrimSpace(edition.ByStatement), "."),
			Publisher: first(edition.Publishers),
			Year:      extractYear(edition.PublishDate),
			Pages:     edition.NumberOfPages,
			LC:        first(edition.LCClassifications),
			Dewey:     first(edition.DeweyDecimalClass),
			Subjects:  firstN(edition.Subjects, 10),
		}
		if len(edition.Covers) > 0 && edition.Covers[0] > 0 {
			frag.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", edition.Covers[0])
		}
		if len(edition.Languages) > 0 {
			frag.Language = strings.TrimPrefix(edition.Languages[0].Key, "/languages/")
		}
		return frag, nil
	})
}

// OpenLibrarySearch reads the first document of the search index.
type OpenLibrarySearch struct {
	client *Client
}

// NewOpenLibrarySearch returns a metadata adapter for search.json.
func NewOpenLibrarySearch(c *Client) *OpenLibrarySearch {
	return &OpenLibrarySearch{client: c}
}

func (o *OpenLibrarySearch) Name() string { return "Open Library Search" }

// LookupISBN returns basic metadata for isbn.
func (o *OpenLibrarySearch) LookupISBN(ctx context.Context, isbn string) *biblio.Fragment {
	return o.client.lookup(ctx, o.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		params := url.Values{}
		params.Set("isbn", isbn)

		var result struct {
			NumFound int `json:"numFound"`
			Docs     []struct {
				Title               string   `json:"title"`
				AuthorName          []string `json:"author_name"`
				Publisher           []string `json:"publisher"`
				FirstPublishYear    int      `json:"first_publish_year"`
				NumberOfPagesMedian int      `json:"number_of_pages_median"`
				LCC                 []string `json:"lcc"`
				DDC                 []string `json:"ddc"`
				Subject             []string `json:"subject"`
				Language            []string `json:"language"`
				CoverI              int      `json:"cover_i"`
			} `json:"docs"`
		}
		if err := o.client.getJSON(ctx, "/search.json", params, &result); err != nil {
			return nil, fmt.Errorf("failed to search Open Library: %w", err)
		}
		if len(result.Docs) == 0 || strings.TrimSpace(result.Docs[0].Title) == "" {
			return nil, nil
		}

		doc := result.Docs[0]
		frag := &biblio.Fragment{
			ISBN:      isbn,
			Title:     strings.TrimSpace(doc.Title),
			Author:    first(doc.AuthorName),
			Publisher: first(doc.Publisher),
			Year:      doc.FirstPublishYear,
			Pages:     doc.NumberOfPagesMedian,
			LC:        first(doc.LCC),
			Dewey:     first(doc.DDC),
			Language:  first(doc.Language),
			Subjects:  firstN(doc.Subject, 10),
		}
		if doc.CoverI > 0 {
			frag.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverI)
		}
		return frag, nil
	})
}
