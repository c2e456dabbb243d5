package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type listOptions struct {
	jsonOutput bool
}

func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the bundled examples by group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	repo, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	groups := repo.Groups()

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(w, "%s\n", g.Title)
		for _, id := range g.Examples {
			ex, err := repo.Lookup(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s\t%s\n", ex.ID, ex.Title)
		}
	}
	return w.Flush()
}
