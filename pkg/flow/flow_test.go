package flow

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/matzehuels/nodeflow/pkg/connector"
	"github.com/matzehuels/nodeflow/pkg/diagram"
)

func route(from, to string, speed int, animate bool) Route {
	return Route{
		Edge:  diagram.Edge{From: from, To: to, Speed: speed, Animate: animate},
		Curve: connector.Route(diagram.Point{X: 0, Y: 0}, diagram.Point{X: 100, Y: 0}, 40),
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		speed int
		want  time.Duration
	}{
		{1, 11 * time.Second},
		{5, 7 * time.Second},
		{10, 2 * time.Second},
		{0, 11 * time.Second},
		{-4, 11 * time.Second},
		{11, 2 * time.Second},
		{50, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := Duration(tt.speed, time.Second); got != tt.want {
			t.Errorf("Duration(%d) = %v, want %v", tt.speed, got, tt.want)
		}
	}
	if got := Duration(10, 100*time.Millisecond); got != 200*time.Millisecond {
		t.Errorf("custom unit: got %v", got)
	}
}

func TestTaskSample(t *testing.T) {
	task := Task{
		EdgeID:   "a->b",
		Curve:    connector.Curve{To: diagram.Point{X: 100}, Control: diagram.Point{X: 50}},
		Duration: 4 * time.Second,
		Phase:    time.Second,
	}
	tests := []struct {
		elapsed      time.Duration
		wantProgress float64
	}{
		{0, 0.25},
		{time.Second, 0.5},
		{3 * time.Second, 0},
		{7 * time.Second, 0},
		{-2 * time.Second, 0.75},
	}
	for _, tt := range tests {
		p := task.Sample(tt.elapsed)
		if math.Abs(p.Progress-tt.wantProgress) > 1e-12 {
			t.Errorf("elapsed %v: progress = %v, want %v", tt.elapsed, p.Progress, tt.wantProgress)
		}
		if want := MaxOpacity * (1 - tt.wantProgress); math.Abs(p.Opacity-want) > 1e-12 {
			t.Errorf("elapsed %v: opacity = %v, want %v", tt.elapsed, p.Opacity, want)
		}
		if math.Abs(p.Position.X-100*tt.wantProgress) > 1e-9 {
			t.Errorf("elapsed %v: x = %v", tt.elapsed, p.Position.X)
		}
	}
}

func TestOpacityBelowFull(t *testing.T) {
	task := Task{Duration: 3 * time.Second, Phase: 0}
	for ms := 0; ms < 6000; ms += 37 {
		p := task.Sample(time.Duration(ms) * time.Millisecond)
		if p.Opacity >= 1 || p.Opacity <= 0 {
			t.Fatalf("opacity %v out of (0,1) at %dms", p.Opacity, ms)
		}
	}
}

func TestSync(t *testing.T) {
	a := New(WithSeed(42))
	added, removed := a.Sync([]Route{
		route("a", "b", 5, true),
		route("b", "c", 10, true),
		route("c", "d", 5, false),
	})
	if diff := cmp.Diff([]string{"a->b", "b->c"}, added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if len(removed) != 0 {
		t.Errorf("removed = %v", removed)
	}

	for _, task := range a.Tasks() {
		if task.Phase < 0 || task.Phase > task.Duration {
			t.Errorf("%s phase %v outside [0,%v]", task.EdgeID, task.Phase, task.Duration)
		}
	}
	before := a.Tasks()

	// b->c leaves the filtered set; a->b stays and keeps its phase.
	moved := route("a", "b", 5, true)
	moved.Curve = connector.Route(diagram.Point{X: 10, Y: 10}, diagram.Point{X: 20, Y: 20}, 40)
	added, removed = a.Sync([]Route{moved})
	if len(added) != 0 {
		t.Errorf("added = %v", added)
	}
	if diff := cmp.Diff([]string{"b->c"}, removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	after := a.Tasks()
	if len(after) != 1 || after[0].Phase != before[0].Phase {
		t.Fatalf("phase not kept: before %+v after %+v", before, after)
	}
	if after[0].Curve != moved.Curve {
		t.Error("curve not refreshed")
	}
}

func TestSyncSpeedChangeScalesPhase(t *testing.T) {
	a := New(WithSeed(3))
	a.Sync([]Route{route("a", "b", 2, true)})
	before := a.Tasks()[0]
	a.Sync([]Route{route("a", "b", 10, true)})
	after := a.Tasks()[0]
	if after.Duration != 2*time.Second {
		t.Fatalf("duration = %v", after.Duration)
	}
	wantFrac := float64(before.Phase) / float64(before.Duration)
	gotFrac := float64(after.Phase) / float64(after.Duration)
	if math.Abs(wantFrac-gotFrac) > 1e-6 {
		t.Errorf("phase fraction %v, want %v", gotFrac, wantFrac)
	}
}

func TestSeededPhasesReproducible(t *testing.T) {
	routes := []Route{route("a", "b", 5, true), route("b", "c", 5, true), route("c", "a", 5, true)}
	a, b := New(WithSeed(9)), New(WithSeed(9))
	a.Sync(routes)
	b.Sync(routes)
	if diff := cmp.Diff(a.Tasks(), b.Tasks()); diff != "" {
		t.Errorf("same seed, different tasks:\n%s", diff)
	}
}

func TestPhasesDesynchronised(t *testing.T) {
	var routes []Route
	for _, to := range []string{"b", "c", "d", "e", "f", "g"} {
		routes = append(routes, route("a", to, 5, true))
	}
	a := New(WithSeed(1))
	a.Sync(routes)
	seen := make(map[time.Duration]bool)
	for _, task := range a.Tasks() {
		seen[task.Phase] = true
	}
	if len(seen) < 2 {
		t.Errorf("all %d parallel edges share a phase", len(routes))
	}
}

func TestCancel(t *testing.T) {
	a := New()
	a.Sync([]Route{route("a", "b", 5, true)})
	if !a.Cancel("a->b") || a.Len() != 0 {
		t.Error("Cancel did not remove the task")
	}
	if a.Cancel("a->b") {
		t.Error("second Cancel reported a task")
	}
}

func TestFrameUsesClock(t *testing.T) {
	now := time.Unix(1000, 0)
	a := New(WithSeed(1), WithClock(func() time.Time { return now }))
	a.Sync([]Route{route("a", "b", 10, true)})
	task := a.Tasks()[0]
	now = now.Add(1500 * time.Millisecond)
	frame := a.Frame()
	if len(frame) != 1 {
		t.Fatalf("frame has %d particles", len(frame))
	}
	if diff := cmp.Diff(task.Sample(1500*time.Millisecond), frame[0]); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New(WithSeed(1))
	a.Sync([]Route{route("a", "b", 5, true)})

	var frames atomic.Int32
	got := make(chan struct{})
	var once sync.Once
	err := a.Start(context.Background(), time.Millisecond, func(ps []Particle) {
		if len(ps) == 1 && frames.Add(1) >= 3 {
			once.Do(func() { close(got) })
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Start(context.Background(), time.Millisecond, func([]Particle) {}); err != ErrRunning {
		t.Errorf("second Start err = %v, want ErrRunning", err)
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no frames delivered")
	}
	a.Stop()
	if a.Len() != 1 {
		t.Error("Stop should keep tasks")
	}
	a.Close()
	if a.Len() != 0 {
		t.Error("Close should cancel every task")
	}
	if added, _ := a.Sync([]Route{route("x", "y", 5, true)}); added != nil || a.Len() != 0 {
		t.Error("Sync after Close scheduled tasks")
	}
	if err := a.Start(context.Background(), time.Millisecond, func([]Particle) {}); err != ErrClosed {
		t.Errorf("Start after Close err = %v", err)
	}
}

func TestStartContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New()
	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Start(ctx, time.Millisecond, func([]Particle) {}); err != nil {
		t.Fatal(err)
	}
	cancel()

	// The loop clears itself, so a new Start succeeds once it has exited.
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := a.Start(context.Background(), time.Millisecond, func([]Particle) {})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Start still failing: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	a.Close()
}
