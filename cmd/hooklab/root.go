package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/logger"
)

type rootFlags struct {
	verbose bool
}

func (f *rootFlags) logger() (*zap.Logger, error) {
	return logger.NewCLI(f.verbose)
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "hooklab",
		Short:         "hooklab runs React hooks examples in an embedded JavaScript runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRunCmd(flags))

	return cmd
}

func loadCatalog() (*catalog.Repository, error) {
	return catalog.Default()
}
