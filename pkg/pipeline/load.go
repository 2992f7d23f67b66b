package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/observability"
)

// Load reads and validates the definition named by opts.
func Load(ctx context.Context, opts Options) (*diagram.Graph, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Source())

	var (
		g   *diagram.Graph
		err error
	)
	if opts.Graph != nil {
		g = opts.Graph
		err = g.Validate()
	} else {
		g, err = diagram.ReadGraphFile(opts.Path)
	}

	n := 0
	if g != nil {
		n = len(g.Nodes)
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Source(), n, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return g, nil
}
