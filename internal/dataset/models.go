package dataset

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// QueryRow is one line of a batch input file. Rows with an ISBN resolve by
// identifier; the rest resolve by title and author.
type QueryRow struct {
	ID        string `json:"id" parquet:"id,optional"`
	ISBN      string `json:"isbn" parquet:"isbn,optional"`
	Title     string `json:"title" parquet:"title,optional"`
	Author    string `json:"author" parquet:"author,optional"`
	Publisher string `json:"publisher" parquet:"publisher,optional"`
}

// Query converts the row to a resolver query.
func (r QueryRow) Query() biblio.Query {
	return biblio.Query{
		ISBN:      strings.TrimSpace(r.ISBN),
		Title:     strings.TrimSpace(r.Title),
		Author:    strings.TrimSpace(r.Author),
		Publisher: strings.TrimSpace(r.Publisher),
	}
}

// Key identifies the row in reports, falling back to its position.
func (r QueryRow) Key(index int) string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return id
	}
	if isbn := strings.TrimSpace(r.ISBN); isbn != "" {
		return isbn
	}
	return fmt.Sprintf("row-%d", index+1)
}
