package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/mdzip/core/fetch"
	"github.com/gaurav-prasanna/mdzip/core/output"
	"github.com/gaurav-prasanna/mdzip/core/pipeline"
	"github.com/gaurav-prasanna/mdzip/internal/logger"
)

// newConvertCmd runs one conversion: read or fetch the input, run the
// pipeline and write the finished artifact.
func newConvertCmd(a *app) *cobra.Command {
	var (
		outputDir  string
		outputName string
	)

	cmd := &cobra.Command{
		Use:   "convert <file|url>",
		Short: "Convert a CSV or ZIP of HTML pages to Markdown",
		Long: `Convert reads a CSV (one article per row) or a ZIP of HTML pages, converts
every body to Markdown and writes the result to the output directory.

Examples:
  mdzip convert articles.csv
  mdzip convert site.zip --layout flat --summary
  mdzip convert articles.csv --layout single --format html
  mdzip convert https://example.com/export.csv --output ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			p, err := pipeline.NewFromConfig(a.cfg, logger.GetDefault())
			if err != nil {
				return err
			}
			res, err := p.Run(cmd.Context(), name, data)
			if err != nil {
				return fmt.Errorf("converting %s: %w", args[0], err)
			}

			writer, err := output.New(outputDir)
			if err != nil {
				return fmt.Errorf("initializing output writer: %w", err)
			}
			if outputName == "" {
				outputName = res.Name
			}
			path, err := writer.Write(outputName, res.Data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Written: %s (%d documents)\n", successStyle.Render("✓"), path, res.Documents)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	f.StringVar(&outputName, "name", "", "output file name (default depends on input and layout)")
	f.String("layout", pipeline.LayoutSections, "output layout: flat, sections, single")
	f.String("format", "markdown", "document format: markdown, json, html, pdf")
	f.String("engine", "rules", "conversion engine: rules, commonmark")
	f.String("image-folder", output.DefaultImageFolder, "archive folder for images")
	f.Bool("summary", false, "write SUMMARY.md in the flat layout")
	f.Bool("dedupe", false, "suffix duplicate file names instead of overwriting")
	f.Bool("extract-main", false, "convert only the main content of each page")
	f.Bool("lenient-callouts", false, "match callouts by class tokens instead of the exact class string")
	f.Bool("lowercase", false, "lowercase file names")
	f.Bool("strip-digits", false, "drop digits from file names")
	f.Bool("number", true, "append the row number to CSV file names")
	f.String("title-column", "article_title", "CSV title column")
	f.String("body-column", "article_body", "CSV body column")
	f.String("section-column", "section", "CSV section column")
	f.String("workspace", output.FsOS, "workspace filesystem: os, memory")
	return cmd
}

// readInput loads a local file or downloads a URL. The returned name
// drives input kind detection.
func readInput(cmd *cobra.Command, input string) (string, []byte, error) {
	if fetch.IsURL(input) {
		res, err := fetch.New().Fetch(cmd.Context(), input)
		if err != nil {
			return "", nil, err
		}
		logger.Debug("Fetched input", "url", input, "bytes", len(res.Body), "content_type", res.ContentType)
		return res.Name, res.Body, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", nil, fmt.Errorf("reading input: %w", err)
	}
	return filepath.Base(input), data, nil
}
