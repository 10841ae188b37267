package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// VuFind looks an ISBN up in a local VuFind discovery layer and reads its
// call numbers as LC candidates.
type VuFind struct {
	client *Client
}

// NewVuFind returns an ISBN-keyed classification adapter for the VuFind
// instance at c.BaseURL.
func NewVuFind(c *Client) *VuFind {
	return &VuFind{client: c}
}

func (v *VuFind) Name() string { return "VuFind catalog" }

// Applies reports whether q carries an ISBN.
func (v *VuFind) Applies(q biblio.Query) bool { return q.HasISBN() }

// Classify returns the first call number and subjects of the first record.
func (v *VuFind) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return v.client.lookup(ctx, v.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		params := url.Values{}
		params.Set("lookfor", q.ISBN)
		params.Set("type", "ISBN")
		params.Set("limit", "1")
		params["field[]"] = []string{"title", "callNumbers", "subjects"}

		var result struct {
			ResultCount int `json:"resultCount"`
			Records     []struct {
				Title       string     `json:"title"`
				CallNumbers []string   `json:"callNumbers"`
				Subjects    [][]string `json:"subjects"`
			} `json:"records"`
			Status string `json:"status"`
		}
		if err := v.client.getJSON(ctx, "/api/v1/search", params, &result); err != nil {
			return nil, fmt.Errorf("failed to search VuFind: %w", err)
		}
		if len(result.Records) == 0 {
			return nil, nil
		}

		record := result.Records[0]
		frag := &biblio.Fragment{
			ISBN: q.ISBN,
			LC:   first(record.CallNumbers),
		}
		for _, heading := range record.Subjects {
			if len(heading) > 0 {
				frag.Subjects = append(frag.Subjects, strings.Join(heading, " -- "))
			}
		}
		frag.Subjects = firstN(frag.Subjects, 10)
		if !frag.HasClassification() {
			return nil, nil
		}
		return frag, nil
	})
}
