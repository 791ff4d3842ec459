// Package cmd implements the CLI commands for mdzip using Cobra.
package cmd

import (
	"context"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/mdzip/internal/config"
	"github.com/gaurav-prasanna/mdzip/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

// flagKeys maps command flags onto configuration keys. A flag only
// overrides the config file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"log-level":        "log.level",
	"log-json":         "log.json",
	"layout":           "layout",
	"format":           "format",
	"engine":           "engine",
	"image-folder":     "image_folder",
	"summary":          "summary",
	"dedupe":           "dedupe",
	"extract-main":     "extract_main",
	"lenient-callouts": "lenient_callouts",
	"lowercase":        "slug.lowercase",
	"strip-digits":     "slug.strip_digits",
	"number":           "slug.number",
	"title-column":     "columns.title",
	"body-column":      "columns.body",
	"section-column":   "columns.section",
	"workspace":        "workspace",
	"host":             "server.host",
	"port":             "server.port",
	"max-upload-mb":    "server.max_upload_mb",
}

// app carries the settings resolved before a subcommand runs.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

// NewRootCmd builds the mdzip command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "mdzip",
		Short: "Convert CSV rows and HTML pages into Markdown archives",
		Long: `mdzip converts a CSV of articles or a ZIP of HTML pages into Markdown.
Headings, paragraphs, images, links and callout blocks are rewritten;
the results are packaged as a ZIP (flat or per-section folders with a
SUMMARY.md) or joined into a single document.

Usage:
  mdzip convert <file|url> [flags]
  mdzip serve [flags]`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file (default: ./mdzip.yaml or ~/.config/mdzip/mdzip.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "log in JSON format")

	root.AddCommand(newConvertCmd(a), newServeCmd(a), newVersionCmd())
	return root
}

// load reads configuration for cmd and initializes logging.
func (a *app) load(cmd *cobra.Command) error {
	file, _ := cmd.Flags().GetString("config")
	if err := config.Init(a.v, file); err != nil {
		return err
	}
	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.SetupLogger(cfg.Log.Level, cfg.Log.JSON, false)
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", "path", used)
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the root command through fang.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, NewRootCmd(), fang.WithVersion(version))
}
