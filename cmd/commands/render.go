package commands

// Command to run the whole pipeline once: fetch, aggregate, render the
// three charts and write index.html (plus the workbook and Telegram
// delivery when configured).

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderviz/internal/infra/config"
	"orderviz/internal/infra/exec"
	"orderviz/internal/infra/log"
	"orderviz/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render order charts into the output directory",
		Long: `Fetch the orders CSV, aggregate it and render the daily trends, payment
method and delivery fee charts. On failure no charts are left behind and
index.html shows the error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, open)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&open, "open", false, "Open index.html when done")
	return cmd
}

func runRender(cmd *cobra.Command, opts *rootOptions, open bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.LogInfo("Render started",
		zap.String("source", cfg.Source),
		zap.String("out", cfg.Output.Dir),
		zap.String("format", cfg.Output.Format),
		zap.String("policy", cfg.Aggregate.Policy))

	res, err := pipeline.Run(ctx, cfg, pipeline.Deps{})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Page)

	if open {
		if err := exec.OpenFile(ctx, res.Page); err != nil {
			log.LogWarn("Failed to open report", zap.Error(err))
		}
	}
	return nil
}
