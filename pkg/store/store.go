// Package store keeps diagram definitions for the HTTP service.
//
// Backends:
//   - [MemoryStore]: in-process, for tests and ephemeral servers
//   - [DirStore]: one definition file per diagram in a directory
//   - [SQLiteStore]: a single SQLite file for one-binary deployments
//   - [MongoStore]: a MongoDB collection for multi-instance deployments
//
// Definitions are validated before they are stored and copied on the way in
// and out, so callers never share a *diagram.Graph with the store.
//
//	s := store.NewMemoryStore()
//	id, err := s.Create(ctx, g)
//	g, err = s.Get(ctx, id)
package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/errors"
)

// Store persists diagram definitions by id.
type Store interface {
	// List returns summaries of every stored diagram ordered by id.
	List(ctx context.Context) ([]Summary, error)
	// Get returns a copy of the definition or a DIAGRAM_NOT_FOUND error.
	Get(ctx context.Context, id string) (*diagram.Graph, error)
	// Put creates or replaces the definition stored under id.
	Put(ctx context.Context, id string, g *diagram.Graph) error
	// Create stores g under a fresh id.
	Create(ctx context.Context, g *diagram.Graph) (string, error)
	// Delete removes id. Deleting a missing id returns DIAGRAM_NOT_FOUND.
	Delete(ctx context.Context, id string) error
	// Close releases backend resources.
	Close() error
}

// Summary describes a stored diagram without its definition.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Scheme    string    `json:"scheme" bson:"scheme"`
	Nodes     int       `json:"nodes" bson:"nodes"`
	Edges     int       `json:"edges" bson:"edges"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewID returns a fresh diagram id.
func NewID() string { return uuid.NewString() }

// Summarize builds the summary of g.
func Summarize(id string, g *diagram.Graph, updated time.Time) Summary {
	return Summary{
		ID:        id,
		Title:     g.Title,
		Scheme:    g.Scheme.String(),
		Nodes:     len(g.Nodes),
		Edges:     len(g.Edges),
		UpdatedAt: updated.UTC(),
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
}

// prepare validates id and g and returns an independent copy of g encoded
// as JSON.
func prepare(id string, g *diagram.Graph) ([]byte, *diagram.Graph, error) {
	if err := errors.ValidateDiagramID(id); err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidDiagram, "diagram is nil")
	}
	data, err := diagram.MarshalGraph(g)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "encode diagram")
	}
	cp, err := diagram.UnmarshalGraph(data)
	if err != nil {
		return nil, nil, err
	}
	return data, cp, nil
}

func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}
