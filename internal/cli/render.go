package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
	"github.com/matzehuels/nodeflow/pkg/watch"
)

// renderOpts holds the render command flags that do not map onto
// pipeline.Options directly.
type renderOpts struct {
	output        string
	formats       string
	noCache       bool
	noAnimate     bool
	noInteractive bool
	watch         bool
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [diagram]",
		Short: "Render a diagram to SVG, PNG, PDF, DOT or layout JSON",
		Long: `Render a diagram to SVG, PNG, PDF, DOT or layout JSON.

The SVG output embeds the hover and click script and animates particles
along every edge marked animate. --select and --hover render the
diagram with that node already active, and --categories hides every category
not listed.

With --watch the definition is re-rendered whenever the file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = pipeline.ParseFormats(ro.formats)
			c.applyConfig(cmd, &opts)
			if len(opts.Formats) == 0 {
				opts.Formats = []string{pipeline.FormatSVG}
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Path = args[0]
			opts.Animate = !ro.noAnimate
			opts.Interactive = !ro.noInteractive
			if ro.watch {
				return c.watchRender(cmd.Context(), opts, ro)
			}
			_, err := c.runRender(cmd.Context(), opts, ro)
			return err
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even when cached")
	cmd.Flags().BoolVar(&ro.noAnimate, "no-animate", false, "omit flow particles")
	cmd.Flags().BoolVar(&ro.noInteractive, "no-interactive", false, "omit the interaction script")
	cmd.Flags().BoolVarP(&ro.watch, "watch", "w", false, "re-render when the definition changes")
	addLayoutFlags(cmd, &opts)
	addRenderFlags(cmd, &opts)

	return cmd
}

// addRenderFlags registers the flags that only affect output.
func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar(&opts.Renderer, "renderer", pipeline.RendererNative, "svg renderer: native, graphviz")
	cmd.Flags().BoolVar(&opts.Legend, "legend", false, "draw the category legend")
	cmd.Flags().BoolVar(&opts.Detail, "detail", false, "draw the detail panel of the selected node")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include category and description in DOT labels")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")
}

// runRender executes the pipeline once and writes every artifact.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, ro renderOpts) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if spinner.Cancelled() {
		spinner.Stop()
		return nil, ctx.Err()
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return nil, err
	}
	spinner.Stop()

	paths := outputPaths(ro.output, opts.Path, opts.Formats)
	formats := make([]string, 0, len(result.Artifacts))
	for f := range result.Artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	printSuccess("Rendered %s", filepath.Base(opts.Path))
	for _, f := range formats {
		data := result.Artifacts[f]
		if err := writeOutput(paths[f], data); err != nil {
			return nil, err
		}
		printFile(paths[f], len(data))
	}
	printStats(statsLine{
		nodes:        result.Stats.NodeCount,
		edges:        result.Stats.EdgeCount,
		visibleNodes: result.Stats.VisibleNodes,
		visibleEdges: result.Stats.VisibleEdges,
		strategy:     result.Strategy,
		cached:       result.CacheInfo.RenderHit,
	})
	return result, nil
}

// watchRender renders once and then again on every change of the
// definition file until ctx is cancelled. Reload errors are reported and
// the previous outputs stay in place.
func (c *CLI) watchRender(ctx context.Context, opts pipeline.Options, ro renderOpts) error {
	logger := loggerFromContext(ctx)
	if _, err := c.runRender(ctx, opts, ro); err != nil {
		printWarning("%v", err)
	}

	p := newProgress(logger)
	w, err := watch.New(opts.Path, func(g *diagram.Graph) {
		p.restart()
		next := opts
		next.Graph = g
		if _, err := c.runRender(ctx, next, ro); err != nil {
			printWarning("%v", err)
			return
		}
		p.done("re-rendered", "path", opts.Path)
	},
		watch.WithLogger(logger),
		watch.OnError(func(err error) { printWarning("%v", err) }),
	)
	if err != nil {
		return err
	}

	printNewline()
	printInfo("Watching %s (ctrl+c to stop)", opts.Path)
	if err := w.Run(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// outputPaths maps each format to its output file. A single format writes
// to output verbatim when given; otherwise files are named base.format.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			paths[f] = base + ".layout.json"
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
