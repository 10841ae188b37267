package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// WriteRecord renders a single resolution. A nil record prints a not found
// line in text form and null otherwise.
func WriteRecord(w io.Writer, rec *biblio.Record, format string) error {
	switch format {
	case FormatText:
		if rec == nil {
			_, err := fmt.Fprintln(w, "No metadata or classification found")
			return err
		}
		writeRecordText(w, rec, "")
		return nil
	case FormatJSON:
		return writeJSON(w, rec)
	case FormatYAML:
		return writeYAML(w, rec)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeRecordText(w io.Writer, rec *biblio.Record, indent string) {
	line := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(w, "%s%-12s %s\n", indent, label+":", value)
		}
	}

	line("Title", rec.Title)
	line("Author", rec.Author)
	line("ISBN", rec.ISBN)
	line("Publisher", rec.Publisher)
	if rec.Year > 0 {
		line("Year", fmt.Sprint(rec.Year))
	}
	if rec.Pages > 0 {
		line("Pages", fmt.Sprint(rec.Pages))
	}
	line("Language", rec.Language)
	line("LC", rec.LC)
	line("Dewey", rec.Dewey)
	line("UDC", rec.UDC)
	line("Subjects", strings.Join(rec.Subjects, "; "))
	line("Confidence", string(rec.Confidence))
	line("Strategy", rec.SearchStrategy)
	line("Sources", strings.Join(rec.Sources, ", "))
}
