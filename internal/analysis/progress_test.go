package analysis

import (
	"testing"
	"time"

	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/ws"
)

func collectProgress(t *testing.T, reg *fakeRegistry, connID string) []int {
	t.Helper()
	var values []int
	for _, m := range reg.messages(connID) {
		if m.Type != ws.TypeAnalysisProgress {
			t.Fatalf("unexpected message type %s", m.Type)
		}
		values = append(values, m.Data.(ws.AnalysisProgressPayload).Progress)
	}
	return values
}

func TestEmitterStrictlyIncreasing(t *testing.T) {
	reg := newFakeRegistry()
	store := NewStore()
	job := store.NewJob("u1", "img1")
	e := NewEmitter(reg, store, logger.New("error", false))

	h := e.Start(job.ID, "c1", "img1", 5*time.Millisecond, 10)
	time.Sleep(40 * time.Millisecond)
	h.Cancel()
	time.Sleep(10 * time.Millisecond)

	values := collectProgress(t, reg, "c1")
	if len(values) == 0 {
		t.Fatal("no progress was pushed")
	}
	prev := 0
	for _, v := range values {
		if v <= prev {
			t.Errorf("progress %d not greater than previous %d", v, prev)
		}
		if v > ProgressCeiling {
			t.Errorf("progress %d exceeds ceiling", v)
		}
		prev = v
	}

	got, _ := store.Job(job.ID)
	if got.Progress != values[len(values)-1] {
		t.Errorf("store progress %d, last pushed %d", got.Progress, values[len(values)-1])
	}
}

func TestEmitterStopsAtCeiling(t *testing.T) {
	reg := newFakeRegistry()
	store := NewStore()
	job := store.NewJob("u1", "img1")
	e := NewEmitter(reg, store, logger.New("error", false))

	// Large step reaches the ceiling fast; the ticker then idles until
	// cancelled without pushing anything further.
	h := e.Start(job.ID, "c1", "img1", 2*time.Millisecond, 30)
	defer h.Cancel()
	time.Sleep(50 * time.Millisecond)

	values := collectProgress(t, reg, "c1")
	want := []int{30, 60, 90}
	if len(values) != len(want) {
		t.Fatalf("progress values = %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("progress values = %v, want %v", values, want)
		}
	}
}

func TestEmitterCancelStopsSends(t *testing.T) {
	reg := newFakeRegistry()
	store := NewStore()
	job := store.NewJob("u1", "img1")
	e := NewEmitter(reg, store, logger.New("error", false))

	h := e.Start(job.ID, "c1", "img1", 3*time.Millisecond, 10)
	time.Sleep(15 * time.Millisecond)
	h.Cancel()

	// Cancel waits for the loop to exit, so the count is frozen the
	// moment it returns.
	before := len(reg.messages("c1"))
	time.Sleep(30 * time.Millisecond)
	after := len(reg.messages("c1"))
	if after != before {
		t.Errorf("sends continued after cancel: %d -> %d", before, after)
	}

	// Cancelling again must be a no-op.
	h.Cancel()
	h.Cancel()
}

func TestEmitterSurvivesClosedConnection(t *testing.T) {
	reg := newFakeRegistry()
	reg.closeConn("c1")
	store := NewStore()
	job := store.NewJob("u1", "img1")
	e := NewEmitter(reg, store, logger.New("error", false))

	h := e.Start(job.ID, "c1", "img1", 3*time.Millisecond, 10)
	time.Sleep(20 * time.Millisecond)
	h.Cancel()

	// Nothing delivered, but the store still advanced.
	if n := len(reg.messages("c1")); n != 0 {
		t.Errorf("%d messages delivered to a closed connection", n)
	}
	got, _ := store.Job(job.ID)
	if got.Progress == 0 {
		t.Error("store progress never advanced")
	}
}
