package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type showOptions struct {
	solution bool
}

func newShowCmd() *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <example-id>",
		Short: "Print an example's description and source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.solution, "solution", false, "Print the solution instead of the problem")

	return cmd
}

func runShow(cmd *cobra.Command, id string, opts *showOptions) error {
	repo, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	ex, err := repo.Lookup(id)
	if err != nil {
		return fmt.Errorf("%w (run 'hooklab list' to see the available ids)", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n%s\n\n", ex.Title, ex.Description)
	if opts.solution && !ex.Playground {
		fmt.Fprintf(out, "%s\n\n", ex.Explanation)
	}
	fmt.Fprint(out, ex.Source(opts.solution))
	return nil
}
