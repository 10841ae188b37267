package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/dataset"
	"github.com/lehigh-university-libraries/bibresolve/internal/report"
	"github.com/lehigh-university-libraries/bibresolve/internal/resolver"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// batchResolver is satisfied by *resolver.Composer.
type batchResolver interface {
	Resolve(ctx context.Context, q biblio.Query) (*biblio.Record, error)
	ResolveByISBNParallel(ctx context.Context, rawISBN string) (*biblio.Record, error)
}

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var (
		limit   int
		workers int
		mode    string
		format  string
		saveDir string
	)

	cmd := &cobra.Command{
		Use:   "batch <queries.jsonl|queries.parquet>",
		Short: "Resolve every query in a JSONL or Parquet file",
		Long: `Resolve a file of queries with bounded concurrency and report the outcome.

Each row carries any of isbn, title, author and publisher, plus an optional
id. Rows with an ISBN resolve by identifier, the rest by title and author.
A row that fails or finds nothing is reported and does not stop the batch.`,
		Example: `  bibresolve batch queries.jsonl
  bibresolve batch queries.parquet --workers 8 --limit 100 --format csv
  bibresolve batch queries.jsonl --mode parallel --save-dir results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "standard" && mode != "parallel" {
				return fmt.Errorf("unknown mode: %s", mode)
			}

			rows, err := dataset.NewLoader(args[0]).LoadSample(limit)
			if err != nil {
				return fmt.Errorf("failed to load queries: %w", err)
			}
			slog.Info("Loaded queries", "path", args[0], "count", len(rows))

			composer, _, err := opts.newComposer(nil)
			if err != nil {
				return err
			}

			entries, err := runBatch(cmd.Context(), composer, rows, mode, workers)
			if err != nil {
				return err
			}

			r := report.New(report.Config{
				Input:     args[0],
				Mode:      mode,
				Workers:   workers,
				Timestamp: time.Now().Format("2006-01-02_15-04-05"),
			}, entries)

			if saveDir != "" {
				path, err := report.SaveYAML(saveDir, r)
				if err != nil {
					return err
				}
				slog.Info("Results saved", "path", path)
			}
			return report.Write(cmd.OutOrStdout(), r, format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Resolve at most this many rows (0 for all)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Concurrent resolutions")
	cmd.Flags().StringVar(&mode, "mode", "standard", "ISBN entry point (standard, parallel)")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "Report format (text, json, yaml, csv)")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "Also write a timestamped YAML report to this directory")

	return cmd
}

// runBatch resolves rows with at most workers in flight. Entries keep the
// input order. Only cancellation of ctx stops the batch early.
func runBatch(ctx context.Context, res batchResolver, rows []dataset.QueryRow, mode string, workers int) ([]report.Entry, error) {
	if workers < 1 {
		workers = 1
	}
	entries := make([]report.Entry, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			q := row.Query()
			start := time.Now()

			var rec *biblio.Record
			var err error
			if mode == "parallel" && q.HasISBN() {
				rec, err = res.ResolveByISBNParallel(gctx, q.ISBN)
			} else {
				rec, err = res.Resolve(gctx, q)
			}

			entry := report.Entry{Key: row.Key(i), Query: q, Record: rec, Duration: time.Since(start)}
			if err != nil {
				entry.Error = err.Error()
			}
			entries[i] = entry

			slog.Debug("Resolved row", "key", entry.Key, "found", rec != nil, "duration", entry.Duration)
			if (i+1)%50 == 0 {
				slog.Info("Batch progress", "row", i+1, "total", len(rows))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}
	return entries, nil
}

var _ batchResolver = (*resolver.Composer)(nil)
