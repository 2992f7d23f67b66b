package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [diagram]",
		Short: "Compute node positions for a diagram definition",
		Long: `Compute node positions for a diagram definition.

The layout command reads a JSON, YAML or TOML definition and writes a
layout.json with one placement per visible node, the viewport and the curve
offset cap. Definitions with a position on every node use the fixed strategy
by default; all others are arranged on a circle.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			opts.Path = args[0]
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// addLayoutFlags registers the flags shared by layout, render and view.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "", "layout strategy: fixed, radial (default: fixed when every node has a position)")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "container width")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "container height (default: derived from width)")
	cmd.Flags().StringVar(&opts.Categories, "categories", "", "comma-separated categories to show (default: all)")
	cmd.Flags().StringVar(&opts.Select, "select", "", "node id to select")
	cmd.Flags().StringVar(&opts.Hover, "hover", "", "node id to hover")
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()

	doc, cacheHit, err := runner.LayoutWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", opts.Path) + ".layout.json"
	}
	data, err := layout.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if err := writeOutput(outputPath, data); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(outputPath, len(data))
	printStats(statsLine{nodes: len(doc.Nodes), strategy: doc.Strategy, cached: cacheHit})
	printNewline()
	printNextStep("Render", appName+" render "+opts.Path)

	return nil
}
