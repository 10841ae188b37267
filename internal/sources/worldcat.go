package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// WorldCatBaseURL is the OCLC Classify host.
const WorldCatBaseURL = "http://classify.oclc.org"

var (
	lccBlock   = regexp.MustCompile(`(?s)<lcc>(.*?)</lcc>`)
	ddcBlock   = regexp.MustCompile(`(?s)<ddc>(.*?)</ddc>`)
	sfaAttr    = regexp.MustCompile(`sfa="([^"]+)"`)
	headingTag = regexp.MustCompile(`<heading[^>]*>([^<]+)</heading>`)
)

// WorldCatClassify queries OCLC Classify either by ISBN or by title and
// author. The response is XML; only the lcc and ddc recommendation blocks
// are read.
type WorldCatClassify struct {
	client  *Client
	byTitle bool
}

// NewWorldCatByISBN returns an ISBN-keyed Classify adapter.
func NewWorldCatByISBN(c *Client) *WorldCatClassify {
	return &WorldCatClassify{client: c}
}

// NewWorldCatByTitle returns a title/author-keyed Classify adapter.
func NewWorldCatByTitle(c *Client) *WorldCatClassify {
	return &WorldCatClassify{client: c, byTitle: true}
}

func (w *WorldCatClassify) Name() string { return "WorldCat Classify" }

// Applies reports whether q carries the key this adapter searches by.
func (w *WorldCatClassify) Applies(q biblio.Query) bool {
	if w.byTitle {
		return q.HasTitle()
	}
	return q.HasISBN()
}

// Classify returns the most popular LC and Dewey numbers for q.
func (w *WorldCatClassify) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return w.client.lookup(ctx, w.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		params := url.Values{}
		if w.byTitle {
			params.Set("title", q.Title)
			if q.HasAuthor() {
				params.Set("author", q.Author)
			}
		} else {
			params.Set("isbn", q.ISBN)
		}
		params.Set("summary", "true")

		body, err := w.client.get(ctx, "/classify2/Classify", params, "application/xml")
		if err != nil {
			return nil, fmt.Errorf("failed to query WorldCat Classify: %w", err)
		}

		frag := parseClassifyResponse(string(body))
		if !frag.HasClassification() {
			return nil, nil
		}
		frag.ISBN = q.ISBN
		return frag, nil
	})
}

func parseClassifyResponse(body string) *biblio.Fragment {
	frag := &biblio.Fragment{
		LC:    recommendation(lccBlock, body),
		Dewey: recommendation(ddcBlock, body),
	}
	for _, m := range headingTag.FindAllStringSubmatch(body, 10) {
		frag.Subjects = append(frag.Subjects, strings.TrimSpace(m[1]))
	}
	return frag
}

// recommendation returns the sfa attribute of the first element inside the
// block matched by block, or the block's bare text when it has no markup.
func recommendation(block *regexp.Regexp, body string) string {
	m := block.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	inner := m[1]
	if attr := sfaAttr.FindStringSubmatch(inner); attr != nil {
		return strings.TrimSpace(attr[1])
	}
	if strings.Contains(inner, "<") {
		return ""
	}
	return strings.TrimSpace(inner)
}
