// Package cmd provides the commands of the qc CLI.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/qc.works/internal/logging"
)

// Version is overridden at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

type rootOptions struct {
	verbose bool
	log     *zap.Logger
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "qc",
		Short: "Risk and cost of acceptance sampling plans",
		Long: `qc evaluates a single-sampling acceptance plan: supplier and consumer
risk, probability of acceptance, average total inspection and the monthly
cost of inspecting lots.

Examples:
  qc compute --lot-size 1000 --sample-size 80 --max-acceptance 2 \
    --aql 1 --ptdl 6.5 --history 2 --unit-cost 1.5 --rejected-expense 500 \
    --business-days 20
  qc compute --file plan.yaml --format json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.DefaultConfig()
			if opts.verbose {
				cfg.Level = "debug"
			}
			logger, err := logging.New(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			opts.log = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newComputeCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qc version %s\n", Version)
		},
	}
}
