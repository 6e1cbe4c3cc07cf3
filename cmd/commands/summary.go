package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"orderviz/internal/features/aggregate"
	"orderviz/internal/infra/config"
	"orderviz/internal/infra/log"
	"orderviz/internal/pipeline"

	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the aggregates without rendering charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			defer log.Sync()

			s, err := pipeline.Aggregate(ctx, cfg, pipeline.NewFetcher(cfg.Fetch))
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), s)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func writeSummary(out io.Writer, s *pipeline.Summary) error {
	fmt.Fprintf(out, "Source: %s\n", s.Source)
	fmt.Fprintf(out, "Rows: %d (ragged %d), policy %s\n", s.Rows, s.Ragged, s.Policy)

	sections := []struct {
		title  string
		series aggregate.Series
		stats  aggregate.Stats
	}{
		{"Daily sums", s.Daily, s.DailyStats},
		{"Payment methods", s.Payment, s.PaymentStats},
		{"Delivery fee frequency", s.DeliveryFee, s.DeliveryFeeStats},
	}
	for _, sec := range sections {
		fmt.Fprintf(out, "\n%s (%d used, %d skipped, %d as zero)\n",
			sec.title, sec.stats.Used, sec.stats.Skipped, sec.stats.Substituted)

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprint(tw, "\t")
		for _, d := range sec.series.Datasets {
			fmt.Fprintf(tw, "%s\t", d.Name)
		}
		fmt.Fprintln(tw)
		for i, label := range sec.series.Labels {
			fmt.Fprintf(tw, "%s\t", label)
			for _, d := range sec.series.Datasets {
				fmt.Fprintf(tw, "%.2f\t", d.Values[i])
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
