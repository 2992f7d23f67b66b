package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/nodeflow/pkg/diagram"
	nferrors "github.com/matzehuels/nodeflow/pkg/errors"
)

// DirStore keeps one definition file per diagram in a directory. Files may
// be JSON, YAML or TOML; the id is the file name without extension. Put
// always writes JSON and removes other encodings of the same id.
type DirStore struct {
	mu  sync.RWMutex
	dir string
}

var definitionExts = []string{".json", ".yaml", ".yml", ".toml"}

// NewDirStore opens dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeInvalidPath, err, "create store dir")
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []Summary
	for _, e := range entries {
		id, ok := idFromName(e.Name())
		if e.IsDir() || !ok || seen[id] {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		g, err := diagram.ReadGraphFile(path)
		if err != nil {
			// unreadable definitions are skipped in listings; Get reports them
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		seen[id] = true
		out = append(out, Summarize(id, g, info.ModTime()))
	}
	sortSummaries(out)
	return out, nil
}

func (s *DirStore) Get(ctx context.Context, id string) (*diagram.Graph, error) {
	if err := nferrors.ValidateDiagramID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.find(id)
	if !ok {
		return nil, notFound(id)
	}
	return diagram.ReadGraphFile(path)
}

func (s *DirStore) Put(ctx context.Context, id string, g *diagram.Graph) error {
	if _, _, err := prepare(id, g); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ext := range definitionExts {
		if ext == ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, id+ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return diagram.WriteGraphFile(g, filepath.Join(s.dir, id+".json"))
}

func (s *DirStore) Create(ctx context.Context, g *diagram.Graph) (string, error) {
	id := NewID()
	return id, s.Put(ctx, id, g)
}

func (s *DirStore) Delete(ctx context.Context, id string) error {
	if err := nferrors.ValidateDiagramID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.find(id)
	if !ok {
		return notFound(id)
	}
	return os.Remove(path)
}

func (s *DirStore) Close() error { return nil }

func (s *DirStore) find(id string) (string, bool) {
	for _, ext := range definitionExts {
		path := filepath.Join(s.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func idFromName(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range definitionExts {
		if ext == e {
			return strings.TrimSuffix(name, filepath.Ext(name)), true
		}
	}
	return "", false
}

var _ Store = (*DirStore)(nil)
