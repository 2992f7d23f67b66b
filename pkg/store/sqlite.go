package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	nferrors "github.com/matzehuels/nodeflow/pkg/errors"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteStore keeps definitions in a single SQLite file. Like [MongoStore]
// it stores the summary columns next to the JSON definition.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at path. Use ":memory:" for
// a throwaway store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeInvalidPath, err, "open sqlite %s", path)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, nferrors.Wrap(nferrors.ErrCodeInternal, err, "initialize sqlite schema")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, scheme, nodes, edges, updated_at FROM diagrams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Scheme, &sum.Nodes, &sum.Edges, &updated); err != nil {
			return nil, err
		}
		sum.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*diagram.Graph, error) {
	if err := nferrors.ValidateDiagramID(id); err != nil {
		return nil, err
	}
	var def string
	err := s.db.QueryRowContext(ctx, `SELECT definition FROM diagrams WHERE id = ?`, id).Scan(&def)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return diagram.UnmarshalGraph([]byte(def))
}

func (s *SQLiteStore) Put(ctx context.Context, id string, g *diagram.Graph) error {
	data, cp, err := prepare(id, g)
	if err != nil {
		return err
	}
	sum := Summarize(id, cp, s.now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diagrams (id, title, scheme, nodes, edges, updated_at, definition)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			scheme = excluded.scheme,
			nodes = excluded.nodes,
			edges = excluded.edges,
			updated_at = excluded.updated_at,
			definition = excluded.definition`,
		sum.ID, sum.Title, sum.Scheme, sum.Nodes, sum.Edges, sum.UpdatedAt.UnixMilli(), string(data))
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, g *diagram.Graph) (string, error) {
	id := NewID()
	return id, s.Put(ctx, id, g)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := nferrors.ValidateDiagramID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
