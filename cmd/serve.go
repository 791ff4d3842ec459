package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/mdzip/internal/logger"
	"github.com/gaurav-prasanna/mdzip/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(a.cfg, logger.GetDefault()).Run(ctx)
		},
	}

	f := cmd.Flags()
	f.String("host", "127.0.0.1", "listen host")
	f.Int("port", 8080, "listen port")
	f.Int64("max-upload-mb", 32, "upload size limit in megabytes")
	f.String("layout", "sections", "default output layout")
	f.String("format", "markdown", "default document format")
	f.String("engine", "rules", "default conversion engine")
	f.String("workspace", "os", "workspace filesystem: os, memory")
	return cmd
}
