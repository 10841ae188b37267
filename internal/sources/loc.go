package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// LOCBaseURL is the loc.gov JSON API host.
const LOCBaseURL = "https://www.loc.gov"

// locItem is one entry of a loc.gov search result list.
type locItem struct {
	Title       string   `json:"title"`
	Contributor []string `json:"contributor"`
	Date        string   `json:"date"`
	Language    []string `json:"language"`
	Subject     []string `json:"subject"`
	CallNumber  []string `json:"call_number"`
	Class       []string `json:"class"`
	Item        struct {
		CallNumber []string `json:"call_number"`
	} `json:"item"`
}

func (i locItem) callNumber() string {
	if v := first(i.CallNumber); v != "" {
		return v
	}
	if v := first(i.Item.CallNumber); v != "" {
		return v
	}
	return first(i.Class)
}

func (i locItem) hasContributor(author string) bool {
	for _, c := range i.Contributor {
		if biblio.AuthorMatches(c, author) {
			return true
		}
	}
	return false
}

// LibraryOfCongress searches the loc.gov books collection by title and
// author.
type LibraryOfCongress struct {
	client *Client
}

// NewLibraryOfCongress returns a title-keyed classification adapter.
func NewLibraryOfCongress(c *Client) *LibraryOfCongress {
	return &LibraryOfCongress{client: c}
}

func (l *LibraryOfCongress) Name() string { return "Library of Congress" }

// Applies reports whether q carries a title.
func (l *LibraryOfCongress) Applies(q biblio.Query) bool { return q.HasTitle() }

// Classify returns the first LC call number and the subject headings of the
// matching results. When q names an author, results crediting that author
// are preferred.
func (l *LibraryOfCongress) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return l.client.lookup(ctx, l.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		search := "title:" + strings.TrimSpace(q.Title)
		if q.HasAuthor() {
			search += " author:" + strings.TrimSpace(q.Author)
		}
		params := url.Values{}
		params.Set("q", search)
		params.Set("fo", "json")
		params.Set("c", "10")

		var result struct {
			Results []locItem `json:"results"`
		}
		if err := l.client.getJSON(ctx, "/books/", params, &result); err != nil {
			return nil, fmt.Errorf("failed to search loc.gov: %w", err)
		}

		items := filterByAuthor(result.Results, q.Author)
		frag := &biblio.Fragment{ISBN: q.ISBN}
		var subjects []string
		for _, item := range items {
			if frag.LC == "" {
				frag.LC = item.callNumber()
			}
			if frag.Year == 0 {
				frag.Year = extractYear(item.Date)
			}
			subjects = append(subjects, item.Subject...)
		}
		frag.Subjects = firstN(biblio.DedupStrings(subjects), 10)

		if !frag.HasClassification() {
			return nil, nil
		}
		return frag, nil
	})
}

// filterByAuthor keeps items crediting author, or all items when none do.
func filterByAuthor(items []locItem, author string) []locItem {
	if strings.TrimSpace(author) == "" {
		return items
	}
	var matched []locItem
	for _, item := range items {
		if item.hasContributor(author) {
			matched = append(matched, item)
		}
	}
	if len(matched) == 0 {
		return items
	}
	return matched
}
