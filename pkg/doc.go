// Package pkg provides the core libraries for nodeflow interactive diagrams.
//
// # Overview
//
// nodeflow turns a declarative graph description (nodes with categories,
// edges with labels and flow settings) into a node-link diagram with
// neighbour highlighting, category filtering, responsive relayout and
// particles flowing along edges. The pkg directory is organized into three
// areas:
//
//  1. Engine - the diagram model and everything computed from it
//  2. Outputs - sinks that draw a [engine.View] snapshot
//  3. Infrastructure - caching, storage, the HTTP service and file watching
//
// # Architecture
//
// The data flow for one diagram instance:
//
//	Definition (JSON, YAML, TOML)
//	         ↓
//	    [diagram] package (validated graph, categories, schemes)
//	         ↓
//	    [interaction] package (hover, selection, active categories)
//	         ↓
//	    [layout] package (fixed or radial positions)
//	         ↓
//	    [connector] + [flow] packages (curves, strokes, particles)
//	         ↓
//	    [engine] View → [render/svg], [render/nodelink], terminal viewer
//
// # Quick Start
//
//	g, _ := diagram.ReadGraphFile("platform.yaml")
//	e, _ := engine.New(g, layout.ForGraph(g), engine.WithDebounce(0))
//	defer e.Close()
//
//	e.Resize(diagram.Size{Width: 1024})
//	e.Click("api")
//
//	svg := svg.Render(e.View(), svg.WithInteraction(), svg.WithAnimation())
//
// # Main Packages
//
// ## Engine
//
// [diagram] - Nodes, edges, the closed category vocabulary and the two
// category schemes. Definitions are decoded and validated here.
//
// [layout] - The [layout.Strategy] interface with fixed (authored positions
// rescaled to the container) and radial (circle with breakpoints) strategies.
//
// [connector] - Quadratic edge curves, label anchors and highlight-dependent
// strokes.
//
// [interaction] - One state value for hover, selection and the category
// filter, with pure transitions and highlight derivation.
//
// [flow] - Looping particle tasks per animated edge and the tick loop.
//
// [panel] - The detail projection of the selected node.
//
// [responsive] - Debounced container size changes.
//
// [engine] - Composes the above into one diagram instance.
//
// ## Outputs
//
// [render/svg] - Standalone SVG with the interaction script and SMIL
// particles.
//
// [render/nodelink] - Graphviz DOT with pinned positions.
//
// [render] - SVG to PDF and PNG conversion.
//
// ## Infrastructure
//
// [pipeline] - Load, layout and render with caching, shared by the CLI and
// the HTTP service.
//
// [cache] - File, Redis and null caches for rendered artifacts.
//
// [store] - Memory, directory and MongoDB stores for definitions.
//
// [server] - The HTTP service.
//
// [watch] - Reloads a definition file when it changes.
//
// [observability] - Hooks for metrics and tracing.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/engine/...     # Specific package
//	go test -run Example         # Examples only
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/diagram
// [layout]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/layout
// [connector]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/connector
// [interaction]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/interaction
// [flow]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/flow
// [panel]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/panel
// [responsive]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/responsive
// [engine]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/engine
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/render/nodelink
// [render]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/server
// [watch]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/watch
// [observability]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/observability
// [engine.View]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/engine#View
// [layout.Strategy]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/layout#Strategy
package pkg
