package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vsinha/scplan/internal/config"
	"github.com/vsinha/scplan/internal/logging"
)

// Version is stamped at build time with -ldflags
var Version = "0.1.0"

type rootOptions struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCommand assembles the scplan command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "scplan",
		Short: "Plan inventory and procurement under demand and supply uncertainty",
		Long: `scplan builds a two-stage stochastic inventory model from catalog and
scenario CSV files, solves it and reports the resulting plan.

Examples:
  scplan plan --data ./data
  scplan plan --data ./data --format json --output ./out
  scplan generate --output ./data --products 3 --demand-scenarios 4`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newPlanCommand(opts))
	rootCmd.AddCommand(newGenerateCommand(opts))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	defer logging.Sync()
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) initConfig() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	o.cfg = cfg
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "scplan version %s\n", Version)
}
