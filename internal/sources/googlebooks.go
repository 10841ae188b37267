package sources

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/microcosm-cc/bluemonday"
)

// GoogleBooksBaseURL is the public Google Books API host.
const GoogleBooksBaseURL = "https://www.googleapis.com"

// GoogleBooks reads the first volume returned for an isbn: query.
type GoogleBooks struct {
	client *Client
	apiKey string
	policy *bluemonday.Policy
}

// NewGoogleBooks returns a metadata adapter. apiKey may be empty.
func NewGoogleBooks(c *Client, apiKey string) *GoogleBooks {
	return &GoogleBooks{
		client: c,
		apiKey: apiKey,
		policy: bluemonday.StrictPolicy(),
	}
}

func (g *GoogleBooks) Name() string { return "Google Books" }

// LookupISBN returns basic metadata for isbn.
func (g *GoogleBooks) LookupISBN(ctx context.Context, isbn string) *biblio.Fragment {
	return g.client.lookup(ctx, g.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		params := url.Values{}
		params.Set("q", "isbn:"+isbn)
		if g.apiKey != "" {
			params.Set("key", g.apiKey)
		}

		var result struct {
			TotalItems int `json:"totalItems"`
			Items      []struct {
				VolumeInfo struct {
					Title         string            `json:"title"`
					Authors       []string          `json:"authors"`
					Publisher     string            `json:"publisher"`
					PublishedDate string            `json:"publishedDate"`
					PageCount     int               `json:"pageCount"`
					Description   string            `json:"description"`
					Language      string            `json:"language"`
					Categories    []string          `json:"categories"`
					ImageLinks    map[string]string `json:"imageLinks"`
				} `json:"volumeInfo"`
			} `json:"items"`
		}
		if err := g.client.getJSON(ctx, "/books/v1/volumes", params, &result); err != nil {
			return nil, fmt.Errorf("failed to query Google Books API: %w", err)
		}
		if len(result.Items) == 0 {
			return nil, nil
		}

		info := result.Items[0].VolumeInfo
		if strings.TrimSpace(info.Title) == "" {
			return nil, nil
		}

		return &biblio.Fragment{
			ISBN:        isbn,
			Title:       strings.TrimSpace(info.Title),
			Author:      first(info.Authors),
			Publisher:   info.Publisher,
			Year:        extractYear(info.PublishedDate),
			Pages:       info.PageCount,
			Language:    info.Language,
			Description: g.plainText(info.Description),
			CoverURL:    strings.Replace(info.ImageLinks["thumbnail"], "http://", "https://", 1),
			Subjects:    firstN(info.Categories, 10),
		}, nil
	})
}

// plainText strips markup from a volume description.
func (g *GoogleBooks) plainText(description string) string {
	if description == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(g.policy.Sanitize(description)))
}
