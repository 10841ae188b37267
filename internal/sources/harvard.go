package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// HarvardBaseURL is the Harvard LibraryCloud API host.
const HarvardBaseURL = "https://api.lib.harvard.edu"

var deweyLike = regexp.MustCompile(`^[0-9]{3}`)

// modsClassification is a MODS classification element rendered as JSON.
type modsClassification struct {
	Authority string `json:"@authority"`
	Text      string `json:"#text"`
}

// oneOrMany decodes a JSON value that LibraryCloud renders as a single
// object when there is one element and as an array otherwise.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// Harvard searches LibraryCloud by title.
type Harvard struct {
	client *Client
}

// NewHarvard returns a title-keyed classification adapter.
func NewHarvard(c *Client) *Harvard {
	return &Harvard{client: c}
}

func (h *Harvard) Name() string { return "Harvard Library" }

// Applies reports whether q carries a title.
func (h *Harvard) Applies(q biblio.Query) bool { return q.HasTitle() }

// Classify sorts the classification values of the matching records into
// Dewey (three leading digits) or LC.
func (h *Harvard) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	return h.client.lookup(ctx, h.Name(), func(ctx context.Context) (*biblio.Fragment, error) {
		params := url.Values{}
		params.Set("title", q.Title)
		if q.HasAuthor() {
			params.Set("name", q.Author)
		}
		params.Set("limit", "10")

		var result struct {
			Items struct {
				Mods oneOrMany[struct {
					Classification oneOrMany[modsClassification] `json:"classification"`
				}] `json:"mods"`
			} `json:"items"`
		}
		if err := h.client.getJSON(ctx, "/v2/items.json", params, &result); err != nil {
			return nil, fmt.Errorf("failed to search Harvard LibraryCloud: %w", err)
		}

		frag := &biblio.Fragment{ISBN: q.ISBN}
		for _, mods := range result.Items.Mods {
			for _, c := range mods.Classification {
				assignClassification(frag, c)
			}
		}
		if !frag.HasClassification() {
			return nil, nil
		}
		return frag, nil
	})
}

// assignClassification stores c in the first empty matching scheme of frag.
func assignClassification(frag *biblio.Fragment, c modsClassification) {
	value := strings.TrimSpace(c.Text)
	if value == "" {
		return
	}
	switch strings.ToLower(c.Authority) {
	case "lcc":
		setIfEmpty(&frag.LC, value)
	case "ddc":
		setIfEmpty(&frag.Dewey, value)
	case "udc":
		setIfEmpty(&frag.UDC, value)
	default:
		if deweyLike.MatchString(value) {
			setIfEmpty(&frag.Dewey, value)
		} else {
			setIfEmpty(&frag.LC, value)
		}
	}
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
