package commands

// Root command for the cobra CLI.
// Registers render, summary and version.

import (
	"fmt"

	"orderviz/internal/infra/config"
	"orderviz/internal/infra/log"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

type rootOptions struct {
	configFile string
	envFile    string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "orderviz",
		Short: "Orderviz - charts from a food delivery orders CSV",
		Long: `Orderviz fetches a CSV of food delivery orders, aggregates it by day,
payment method and delivery fee, and renders line, pie and doughnut charts
with an index.html status page.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Env file (default ./.env)")

	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads the config with cmd's flags on top and sets up logging.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: opts.configFile,
		EnvFile:    opts.envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if err := log.Setup(log.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: true}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orderviz %s\n", version)
		},
	}
}
