package store

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// MemoryStore is an in-memory [Store].
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	data    []byte
	summary Summary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.summary)
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*diagram.Graph, error) {
	s.mu.RLock()
	it, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return diagram.UnmarshalGraph(it.data)
}

func (s *MemoryStore) Put(ctx context.Context, id string, g *diagram.Graph) error {
	data, cp, err := prepare(id, g)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = memoryItem{data: data, summary: Summarize(id, cp, s.now())}
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, g *diagram.Graph) (string, error) {
	id := NewID()
	return id, s.Put(ctx, id, g)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return notFound(id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
