package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/goleak"

	"github.com/matzehuels/nodeflow/pkg/layout"
	"github.com/matzehuels/nodeflow/pkg/store"
)

const platformJSON = `{
  "title": "Platform",
  "nodes": [
    {"id": "webapp", "category": "frontend", "position": {"x": 400, "y": 80}},
    {"id": "api", "category": "backend", "position": {"x": 400, "y": 240}},
    {"id": "db", "category": "infrastructure", "position": {"x": 250, "y": 400}}
  ],
  "edges": [
    {"from": "webapp", "to": "api", "label": "REST", "animate": true},
    {"from": "api", "to": "db", "label": "SQL"}
  ]
}`

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, store.Store) {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Rate == 0 {
		cfg.Rate = -1
	}
	srv := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv, cfg.Store
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"ok"`)) {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}
}

func TestDiagramCRUD(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	resp, body := do(t, http.MethodPut, srv.URL+"/diagrams/platform", "application/json", platformJSON)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT = %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, srv.URL+"/diagrams", "application/yaml",
		"nodes:\n  - id: k8s\n    category: devops\n")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST = %d %s", resp.StatusCode, body)
	}
	var created struct{ ID string }
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		t.Fatalf("POST body %s: %v", body, err)
	}
	if loc := resp.Header.Get("Location"); loc != "/diagrams/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/diagrams", "", "")
	var list []store.Summary
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || len(list) != 2 {
		t.Fatalf("list = %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/diagrams/platform", "", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"category": "frontend"`)) {
		t.Errorf("GET = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodDelete, srv.URL+"/diagrams/"+created.ID, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/diagrams/"+created.ID, "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted = %d", resp.StatusCode)
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/diagrams/platform", "", platformJSON)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		status   int
		wantCode string
	}{
		{"Missing", http.MethodGet, "/diagrams/nope", "", http.StatusNotFound, "DIAGRAM_NOT_FOUND"},
		{"BadJSON", http.MethodPut, "/diagrams/x", "{", http.StatusBadRequest, "INVALID_DIAGRAM"},
		{"UnknownCategory", http.MethodPut, "/diagrams/x", `{"nodes":[{"id":"a","category":"db"}]}`, http.StatusBadRequest, "INVALID_DIAGRAM"},
		{"MixedSchemes", http.MethodPut, "/diagrams/x", `{"nodes":[{"id":"a","category":"frontend"},{"id":"b","category":"cloud"}]}`, http.StatusBadRequest, "INVALID_CATEGORY"},
		{"BadID", http.MethodPut, "/diagrams/..x", platformJSON, http.StatusBadRequest, "INVALID_INPUT"},
		{"BadFormat", http.MethodGet, "/diagrams/platform/render.gif", "", http.StatusBadRequest, "INVALID_FORMAT"},
		{"BadStrategy", http.MethodGet, "/diagrams/platform/layout?strategy=grid", "", http.StatusBadRequest, "INVALID_STRATEGY"},
		{"BadWidth", http.MethodGet, "/diagrams/platform/layout?width=wide", "", http.StatusBadRequest, "INVALID_SIZE"},
		{"BadBool", http.MethodGet, "/diagrams/platform/render.svg?animate=maybe", "", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, "", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			var eb errorBody
			if err := json.Unmarshal(body, &eb); err != nil {
				t.Fatalf("error body %s: %v", body, err)
			}
			if string(eb.Code) != tt.wantCode {
				t.Errorf("code = %q, want %q", eb.Code, tt.wantCode)
			}
		})
	}
}

func TestLayoutAndRender(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/diagrams/platform", "", platformJSON)

	resp, body := do(t, http.MethodGet, srv.URL+"/diagrams/platform/layout?width=400", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("layout = %d %s", resp.StatusCode, body)
	}
	doc, err := layout.UnmarshalDocument(body)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Strategy != layout.StrategyFixed || len(doc.Nodes) != 3 {
		t.Errorf("layout doc = %+v", doc)
	}
	if p := doc.Positions()["webapp"]; p.X != 200 || p.Y != 40 {
		t.Errorf("webapp at %v, want (200,40)", p)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/diagrams/platform/render.svg?select=api&legend=true", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render = %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{"<svg", "<script", "animateMotion", `class="legend"`, "selected"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("svg missing %q", want)
		}
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/diagrams/platform/render.dot?categories=frontend,backend", "", "")
	if resp.StatusCode != http.StatusOK || bytes.Contains(body, []byte(`"db"`)) {
		t.Errorf("filtered dot = %d %s", resp.StatusCode, body)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Config{Rate: 0.001, Burst: 1})

	resp, _ := do(t, http.MethodGet, srv.URL+"/diagrams", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request = %d", resp.StatusCode)
	}
	resp, body := do(t, http.MethodGet, srv.URL+"/diagrams", "", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request = %d %s", resp.StatusCode, body)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if resp, _ := do(t, http.MethodGet, srv.URL+"/healthz", "", ""); resp.StatusCode != http.StatusOK {
		t.Error("healthz should bypass the limiter")
	}
}

func TestServeShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{}).Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestShutdownDrainsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	release := make(chan struct{})
	s := New(Config{})
	router := chi.NewRouter()
	router.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		if err := r.Context().Err(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	s.router = router

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	status := make(chan int, 1)
	go func() {
		resp, err := client.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	if got := <-status; got != http.StatusOK {
		t.Errorf("in-flight request status = %d, want %d", got, http.StatusOK)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
