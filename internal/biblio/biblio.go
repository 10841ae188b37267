// Package biblio holds the data model shared by the source adapters and the
// resolver: queries, per-source fragments, the classification accumulator
// and the final resolved record.
package biblio

import (
	"strings"
	"time"
)

// Scheme identifies one of the supported classification schemes.
type Scheme int

const (
	SchemeLC Scheme = iota
	SchemeDewey
	SchemeUDC
)

// Schemes lists every scheme in the order records present them.
var Schemes = []Scheme{SchemeLC, SchemeDewey, SchemeUDC}

func (s Scheme) String() string {
	switch s {
	case SchemeLC:
		return "LC"
	case SchemeDewey:
		return "Dewey"
	case SchemeUDC:
		return "UDC"
	default:
		return "unknown"
	}
}

// Query is the caller's partial identification of a book.
type Query struct {
	ISBN      string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Author    string `json:"author,omitempty" yaml:"author,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
}

// IsBlank reports whether every field of q is blank.
func (q Query) IsBlank() bool {
	return isBlank(q.ISBN) && isBlank(q.Title) && isBlank(q.Author) && isBlank(q.Publisher)
}

// HasISBN reports whether q carries an identifier.
func (q Query) HasISBN() bool { return !isBlank(q.ISBN) }

// HasTitle reports whether q carries a title.
func (q Query) HasTitle() bool { return !isBlank(q.Title) }

// HasAuthor reports whether q carries an author.
func (q Query) HasAuthor() bool { return !isBlank(q.Author) }

// Fragment is one source's normalized, partial answer. Zero values mean
// the source did not supply the field.
type Fragment struct {
	Source      string   `json:"source"`
	ISBN        string   `json:"isbn,omitempty"`
	Title       string   `json:"title,omitempty"`
	Author      string   `json:"author,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Year        int      `json:"year,omitempty"`
	Pages       int      `json:"pages,omitempty"`
	Language    string   `json:"language,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	LC          string   `json:"lc,omitempty"`
	Dewey       string   `json:"dewey,omitempty"`
	UDC         string   `json:"udc,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
}

// Value returns the fragment's value for scheme s.
func (f *Fragment) Value(s Scheme) string {
	if f == nil {
		return ""
	}
	switch s {
	case SchemeLC:
		return f.LC
	case SchemeDewey:
		return f.Dewey
	case SchemeUDC:
		return f.UDC
	}
	return ""
}

// HasClassification reports whether any scheme or subject heading is present.
func (f *Fragment) HasClassification() bool {
	if f == nil {
		return false
	}
	for _, s := range Schemes {
		if !isBlank(f.Value(s)) {
			return true
		}
	}
	return len(f.Subjects) > 0
}

// Confidence is a coarse label for how well-supported a record's
// classifications are.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Record is the final output of one resolution.
type Record struct {
	ID             string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title          string     `json:"title" yaml:"title"`
	Author         string     `json:"author" yaml:"author"`
	ISBN           string     `json:"isbn" yaml:"isbn"`
	Publisher      string     `json:"publisher" yaml:"publisher"`
	Year           int        `json:"year,omitempty" yaml:"year,omitempty"`
	Pages          int        `json:"pages,omitempty" yaml:"pages,omitempty"`
	Language       string     `json:"language,omitempty" yaml:"language,omitempty"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	CoverURL       string     `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	LC             string     `json:"lc" yaml:"lc"`
	Dewey          string     `json:"dewey" yaml:"dewey"`
	UDC            string     `json:"udc" yaml:"udc"`
	Subjects       []string   `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	Sources        []string   `json:"sources" yaml:"sources"`
	MetadataSource string     `json:"metadata_source,omitempty" yaml:"metadata_source,omitempty"`
	SearchStrategy string     `json:"search_strategy" yaml:"search_strategy"`
	Confidence     Confidence `json:"confidence" yaml:"confidence"`
	ResolvedAt     time.Time  `json:"resolved_at" yaml:"resolved_at"`
}

// Classification returns the record's chosen value for scheme s.
func (r *Record) Classification(s Scheme) string {
	switch s {
	case SchemeLC:
		return r.LC
	case SchemeDewey:
		return r.Dewey
	case SchemeUDC:
		return r.UDC
	}
	return ""
}

// Summary renders the chosen classifications and up to three subject
// headings on one line, e.g. "LC: PZ7.R79835 | Dewey: 823.914".
func (r *Record) Summary() string {
	var parts []string
	for _, s := range Schemes {
		if v := r.Classification(s); !isBlank(v) {
			parts = append(parts, s.String()+": "+v)
		}
	}
	if len(r.Subjects) > 0 {
		subjects := r.Subjects
		if len(subjects) > 3 {
			subjects = subjects[:3]
		}
		parts = append(parts, "Subjects: "+strings.Join(subjects, ", "))
	}
	return strings.Join(parts, " | ")
}

// AuthorMatches reports whether candidate contains wanted, ignoring case.
// A blank wanted matches everything.
func AuthorMatches(candidate, wanted string) bool {
	wanted = strings.TrimSpace(wanted)
	if wanted == "" {
		return true
	}
	return strings.Contains(strings.ToLower(candidate), strings.ToLower(wanted))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
