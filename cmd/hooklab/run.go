package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isdmx/hooklab/config"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/react"
	"github.com/isdmx/hooklab/sandbox"
)

type runOptions struct {
	example    string
	solution   bool
	clicks     []string
	jsonOutput bool
}

type runOutput struct {
	Failure *sandbox.Failure  `json:"failure,omitempty"`
	HTML    string            `json:"html,omitempty"`
	Console []console.Message `json:"console"`
}

func newRunCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Compile and render a JSX snippet or a bundled example",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := rootFlags.logger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			source, err := loadSource(args, opts)
			if err != nil {
				return err
			}
			return runSource(cmd, log, source, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.example, "example", "e", "", "Run a bundled example instead of a file")
	cmd.Flags().BoolVar(&opts.solution, "solution", false, "Run the example's solution")
	cmd.Flags().StringArrayVar(&opts.clicks, "click", nil, "Click the button whose text contains the value; repeatable")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func loadSource(args []string, opts *runOptions) (string, error) {
	switch {
	case len(args) == 1 && opts.example != "":
		return "", errors.New("pass either a file or --example, not both")
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading source: %w", err)
		}
		return string(data), nil
	case opts.example != "":
		repo, err := loadCatalog()
		if err != nil {
			return "", fmt.Errorf("loading catalog: %w", err)
		}
		ex, err := repo.Lookup(opts.example)
		if err != nil {
			return "", err
		}
		return ex.Source(opts.solution), nil
	default:
		return "", errors.New("a file or --example is required")
	}
}

func runSource(cmd *cobra.Command, log *zap.Logger, source string, opts *runOptions) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	buf := console.NewBuffer(cfg.Sandbox.ConsoleBuffer)
	sb := sandbox.NewFromConfig(log, cfg, console.Multi(buf, console.NewZapSink(log)))

	ctx := cmd.Context()
	res, view := sb.RunAndMount(ctx, source)

	for _, label := range opts.clicks {
		if view == nil {
			break
		}
		id, err := findButton(view, label)
		if err != nil {
			return err
		}
		if err := view.Dispatch(ctx, id, "click", nil); err != nil {
			var f *sandbox.Failure
			if !errors.As(err, &f) {
				return fmt.Errorf("clicking %q: %w", label, err)
			}
			res, view = f, nil
		}
	}

	out := runOutput{Console: buf.Messages()}
	if f, ok := res.(*sandbox.Failure); ok {
		out.Failure = f
	}
	if view != nil {
		html, err := view.HTML()
		if err != nil {
			return fmt.Errorf("rendering html: %w", err)
		}
		out.HTML = html
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		printRun(cmd, out)
	}

	if out.Failure != nil {
		return out.Failure
	}
	return nil
}

func findButton(view *sandbox.View, label string) (string, error) {
	for _, b := range react.FindAll(view.Tree(), react.ByTag("button")) {
		if strings.Contains(b.TextContent(), label) {
			return b.ID, nil
		}
	}
	return "", fmt.Errorf("no button containing %q", label)
}

func printRun(cmd *cobra.Command, out runOutput) {
	w := cmd.OutOrStdout()
	if out.HTML != "" {
		fmt.Fprintln(w, out.HTML)
	}
	for _, m := range out.Console {
		fmt.Fprintf(w, "[%s] %s\n", m.Kind, m.Text)
	}
}
