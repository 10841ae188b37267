// Package report formats resolved records and batch summaries.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"gopkg.in/yaml.v3"
)

// Formats accepted by Write and WriteRecord.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Entry is the outcome of one batch row.
type Entry struct {
	Key      string         `json:"key" yaml:"key"`
	Query    biblio.Query   `json:"query" yaml:"query"`
	Record   *biblio.Record `json:"record,omitempty" yaml:"record,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration  `json:"duration_ns" yaml:"duration"`
}

// Config describes how a batch was run.
type Config struct {
	Input     string `json:"input" yaml:"input"`
	Mode      string `json:"mode" yaml:"mode"`
	Workers   int    `json:"workers" yaml:"workers"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Summary aggregates a batch.
type Summary struct {
	Total           int            `json:"total" yaml:"total"`
	Found           int            `json:"found" yaml:"found"`
	NotFound        int            `json:"not_found" yaml:"notfound"`
	Failed          int            `json:"failed" yaml:"failed"`
	ByConfidence    map[string]int `json:"by_confidence" yaml:"byconfidence"`
	AverageDuration time.Duration  `json:"average_duration_ns" yaml:"averageduration"`
}

// Report is a complete batch run.
type Report struct {
	Config  Config  `json:"config" yaml:"config"`
	Summary Summary `json:"summary" yaml:"summary"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// New builds a report and its summary from entries.
func New(cfg Config, entries []Entry) *Report {
	return &Report{Config: cfg, Summary: Summarize(entries), Entries: entries}
}

// Summarize counts outcomes by kind and confidence.
func Summarize(entries []Entry) Summary {
	s := Summary{Total: len(entries), ByConfidence: make(map[string]int)}
	var total time.Duration
	for _, e := range entries {
		total += e.Duration
		switch {
		case e.Error != "":
			s.Failed++
		case e.Record == nil:
			s.NotFound++
		default:
			s.Found++
			s.ByConfidence[string(e.Record.Confidence)]++
		}
	}
	if len(entries) > 0 {
		s.AverageDuration = total / time.Duration(len(entries))
	}
	return s
}

// Write renders r to w in the requested format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatText:
		return writeText(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatCSV:
		return writeCSV(w, r)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// SaveYAML writes r to a timestamped file under dir and returns its path.
func SaveYAML(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	stamp := r.Config.Timestamp
	if stamp == "" {
		stamp = time.Now().Format("2006-01-02_15-04-05")
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", r.Config.Mode, stamp))

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filepath.Abs(filename)
}

func writeText(w io.Writer, r *Report) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Bibliographic Resolution Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Input:   %s\n", r.Config.Input)
	fmt.Fprintf(w, "Mode:    %s\n", r.Config.Mode)
	fmt.Fprintf(w, "Workers: %d\n\n", r.Config.Workers)

	writeSummary(w, r.Summary)

	fmt.Fprintln(w, "\nDetailed Results:")
	fmt.Fprintln(w, "========================================")
	for i, e := range r.Entries {
		fmt.Fprintf(w, "\n[%d] %s (%s)\n", i+1, e.Key, e.Duration.Round(time.Millisecond))
		switch {
		case e.Error != "":
			fmt.Fprintf(w, "  Error: %s\n", e.Error)
		case e.Record == nil:
			fmt.Fprintln(w, "  Not found")
		default:
			writeRecordText(w, e.Record, "  ")
		}
	}
	return nil
}

func writeSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total:     %d\n", s.Total)
	fmt.Fprintf(w, "  Found:     %d\n", s.Found)
	fmt.Fprintf(w, "  Not found: %d\n", s.NotFound)
	fmt.Fprintf(w, "  Failed:    %d\n", s.Failed)

	levels := make([]string, 0, len(s.ByConfidence))
	for level := range s.ByConfidence {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	for _, level := range levels {
		fmt.Fprintf(w, "  %-9s  %d\n", level+":", s.ByConfidence[level])
	}
	fmt.Fprintf(w, "  Avg time:  %s\n", s.AverageDuration.Round(time.Millisecond))
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return encoder.Close()
}

var csvHeader = []string{"Key", "ISBN", "Title", "Author", "LC", "Dewey", "UDC", "Confidence", "Sources", "Strategy", "Duration (ms)", "Error"}

func writeCSV(w io.Writer, r *Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range r.Entries {
		row := []string{e.Key, e.Query.ISBN, e.Query.Title, e.Query.Author, "", "", "", "", "", "", strconv.FormatInt(e.Duration.Milliseconds(), 10), e.Error}
		if rec := e.Record; rec != nil {
			row[1] = rec.ISBN
			row[2] = rec.Title
			row[3] = rec.Author
			row[4] = rec.LC
			row[5] = rec.Dewey
			row[6] = rec.UDC
			row[7] = string(rec.Confidence)
			row[8] = strings.Join(rec.Sources, "; ")
			row[9] = rec.SearchStrategy
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
