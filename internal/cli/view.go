package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
	"github.com/matzehuels/nodeflow/pkg/watch"
)

// viewCommand creates the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		strategy   string
		categories string
		watchFile  bool
	)

	cmd := &cobra.Command{
		Use:   "view [diagram]",
		Short: "Explore a diagram interactively in the terminal",
		Long: `Explore a diagram interactively in the terminal.

Tab moves focus between nodes and highlights their neighbours, enter selects
the focused node and shows its details, and the number keys toggle
categories. Animated edges carry moving particles. The layout follows the
terminal size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy == "" {
				strategy = c.Config.Layout.Strategy
			}
			return c.runView(cmd.Context(), args[0], strategy, categories, watchFile)
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "layout strategy: fixed, radial")
	cmd.Flags().StringVar(&categories, "categories", "", "comma-separated categories to show (default: all)")
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "reload when the definition changes")

	return cmd
}

func (c *CLI) runView(ctx context.Context, path, strategy, categories string, watchFile bool) error {
	if err := pipeline.ValidateStrategy(strategy); err != nil {
		return err
	}
	active, err := diagram.ParseCategorySet(categories)
	if err != nil {
		return err
	}
	g, err := diagram.ReadGraphFile(path)
	if err != nil {
		return err
	}

	build := func(g *diagram.Graph, active diagram.CategorySet) (*engine.Engine, error) {
		s, err := pipeline.ResolveStrategy(g, strategy)
		if err != nil {
			return nil, err
		}
		opts := []engine.Option{
			engine.WithLogger(c.Logger),
			engine.WithDebounce(0),
		}
		if !active.Empty() {
			opts = append(opts, engine.WithCategories(active))
		}
		return engine.New(g, s, opts...)
	}
	e, err := build(g, active)
	if err != nil {
		return err
	}

	title := g.Title
	if title == "" {
		title = path
	}
	m := newViewerModel(title, e, build)
	// The viewer owns the terminal; keep log lines off it.
	c.SetLogLevel(LogWarn)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	var wg sync.WaitGroup
	if watchFile {
		w, err := watch.New(path,
			func(g *diagram.Graph) { p.Send(reloadMsg{graph: g}) },
			watch.WithLogger(c.Logger),
			watch.OnError(func(err error) { p.Send(reloadErrMsg{err: err}) }),
		)
		if err != nil {
			e.Close()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	_, err = p.Run()
	cancel()
	wg.Wait()
	m.engine.Close()
	if errors.Is(err, tea.ErrProgramKilled) {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
