package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

const v1 = `{"nodes":[{"id":"a","category":"frontend"}]}`
const v2 = `{"nodes":[{"id":"a","category":"frontend"},{"id":"b","category":"backend"}]}`

func TestReloadOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "d.json")
	if err := os.WriteFile(path, []byte(v1), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan *diagram.Graph, 4)
	errs := make(chan error, 4)
	w, err := New(path, func(g *diagram.Graph) { changes <- g },
		WithDebounce(50*time.Millisecond),
		OnError(func(err error) { errs <- err }))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// other files in the directory are ignored
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte(v2), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(v2), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case g := <-changes:
		if len(g.Nodes) != 2 {
			t.Errorf("reloaded %d nodes, want 2", len(g.Nodes))
		}
	case err := <-errs:
		t.Fatalf("reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-errs:
	case g := <-changes:
		t.Fatalf("invalid definition delivered: %+v", g)
	case <-time.After(5 * time.Second):
		t.Fatal("no error after invalid write")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func TestCloseCancelsPendingReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "d.json")
	if err := os.WriteFile(path, []byte(v1), 0o644); err != nil {
		t.Fatal(err)
	}
	called := make(chan struct{}, 1)
	w, err := New(path, func(*diagram.Graph) { called <- struct{}{} }, WithDebounce(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	w.handle(fsnotifyWrite(w.Path()))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	select {
	case <-called:
		t.Error("reload ran after Close")
	default:
	}
}

func TestNewMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope", "d.json"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
