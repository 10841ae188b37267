package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/extract"
	"github.com/lehigh-university-libraries/bibresolve/internal/report"
	"github.com/spf13/cobra"
)

func newResolveCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a single book",
		Long: `Resolve a single book by ISBN, by title and author, or from free text.

Nothing found is not an error: the command prints a notice and exits 0.`,
	}
	cmd.PersistentFlags().StringVarP(&format, "format", "f", report.FormatText, "Output format (text, json, yaml)")

	cmd.AddCommand(newResolveISBNCmd(opts, &format))
	cmd.AddCommand(newResolveTitleCmd(opts, &format))
	cmd.AddCommand(newResolveParallelCmd(opts, &format))
	cmd.AddCommand(newResolveTextCmd(opts, &format))

	return cmd
}

func newResolveISBNCmd(opts *globalOptions, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "isbn <isbn>",
		Short: "Resolve by ISBN-10 or ISBN-13",
		Example: `  bibresolve resolve isbn 0-439-70818-2
  bibresolve resolve isbn 9780441013593 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			composer, _, err := opts.newComposer(nil)
			if err != nil {
				return err
			}
			rec, err := composer.ResolveByISBN(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.WriteRecord(cmd.OutOrStdout(), rec, *format)
		},
	}
}

func newResolveTitleCmd(opts *globalOptions, format *string) *cobra.Command {
	var author, publisher string

	cmd := &cobra.Command{
		Use:   "title <title>",
		Short: "Resolve by title, optionally narrowed by author and publisher",
		Example: `  bibresolve resolve title "Dune" --author "Frank Herbert"
  bibresolve resolve title "Cien años de soledad" --author "García Márquez"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			composer, _, err := opts.newComposer(nil)
			if err != nil {
				return err
			}
			rec, err := composer.Resolve(cmd.Context(), biblio.Query{
				Title:     strings.Join(args, " "),
				Author:    author,
				Publisher: publisher,
			})
			if err != nil {
				return err
			}
			return report.WriteRecord(cmd.OutOrStdout(), rec, *format)
		},
	}
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author name")
	cmd.Flags().StringVarP(&publisher, "publisher", "p", "", "Publisher name")

	return cmd
}

func newResolveParallelCmd(opts *globalOptions, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "parallel <isbn>",
		Short: "Resolve by ISBN, also querying title-keyed catalogs",
		Long: `Like "resolve isbn", but once basic metadata names the title the
title/author-keyed catalogs are queried too. Slower, and more complete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			composer, _, err := opts.newComposer(nil)
			if err != nil {
				return err
			}
			rec, err := composer.ResolveByISBNParallel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.WriteRecord(cmd.OutOrStdout(), rec, *format)
		},
	}
}

func newResolveTextCmd(opts *globalOptions, format *string) *cobra.Command {
	var file, provider, model string

	cmd := &cobra.Command{
		Use:   "text",
		Short: "Resolve from free text such as title page OCR",
		Long: `Send free text to an LLM to pull out the title, author, publisher and
ISBN, then resolve the result. Reads --file, or stdin when no file is given.

Providers: ollama (default, OLLAMA_URL), openai (OPENAI_API_KEY) and gemini
(GEMINI_API_KEY).`,
		Example: `  bibresolve resolve text --file title-page.txt
  tesseract page.png - | bibresolve resolve text --provider openai`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			composer, cfg, err := opts.newComposer(nil)
			if err != nil {
				return err
			}

			text, err := readText(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			if provider == "" {
				provider = cfg.ExtractProvider
			}
			if model == "" {
				model = cfg.ExtractModel
			}
			extractor, err := extract.NewFromName(provider, model)
			if err != nil {
				return err
			}

			q, err := extractor.ExtractQuery(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Extracted: isbn=%q title=%q author=%q\n", q.ISBN, q.Title, q.Author)

			rec, err := composer.Resolve(cmd.Context(), q)
			if err != nil {
				return err
			}
			return report.WriteRecord(cmd.OutOrStdout(), rec, *format)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Text file to read (default stdin)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (ollama, openai, gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (provider default when empty)")

	return cmd
}

func readText(stdin io.Reader, path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}
