package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verdantlabs/leafsight/internal/catalog"
	"github.com/verdantlabs/leafsight/internal/domain"
	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/ws"
)

// fakeRegistry records pushed messages per connection. Unknown
// connections are considered open until closeConn is called.
type fakeRegistry struct {
	mu         sync.Mutex
	identities map[string]string
	closed     map[string]bool
	msgs       map[string][]ws.Message
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		identities: make(map[string]string),
		closed:     make(map[string]bool),
		msgs:       make(map[string][]ws.Message),
	}
}

func (f *fakeRegistry) BindIdentity(connID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed[connID] {
		return ws.ErrClosed
	}
	f.identities[connID] = userID
	return nil
}

func (f *fakeRegistry) Identity(connID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.identities[connID]
	return id, id != ""
}

func (f *fakeRegistry) Send(ctx context.Context, connID string, msg ws.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed[connID] {
		return ws.ErrClosed
	}
	f.msgs[connID] = append(f.msgs[connID], msg)
	return nil
}

func (f *fakeRegistry) closeConn(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[connID] = true
}

func (f *fakeRegistry) messages(connID string) []ws.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ws.Message, len(f.msgs[connID]))
	copy(out, f.msgs[connID])
	return out
}

// fakeProvider resolves after a fixed latency with a fixed detection.
type fakeProvider struct {
	latency time.Duration
	det     domain.Detection
}

func (p fakeProvider) Detect(ctx context.Context, imageRef string) domain.Detection {
	time.Sleep(p.latency)
	return p.det
}

func testDetection() domain.Detection {
	return domain.Detection{
		Name:           "Black Sigatoka",
		ScientificName: "Mycosphaerella fijiensis",
		Confidence:     0.85,
		Severity:       domain.SeverityHigh,
		Description:    "leaf-spot disease",
		Treatments:     []string{"Remove infected leaves"},
		Provenance:     domain.ProvenanceFallback,
	}
}

func newTestOrchestrator(reg *fakeRegistry, latency time.Duration) (*Orchestrator, *Store) {
	store := NewStore()
	o := New(
		fakeProvider{latency: latency, det: testDetection()},
		reg,
		store,
		catalog.New(catalog.Defaults()),
		nil,
		logger.New("error", false),
		Config{TickInterval: 5 * time.Millisecond, ProgressStep: 10},
	)
	return o, store
}

func waitForState(t *testing.T, store *Store, jobID string, want domain.JobState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := store.Job(jobID); ok && job.State == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	job, _ := store.Job(jobID)
	t.Fatalf("job %s never reached %s, last state %s", jobID, want, job.State)
}

func TestSubmitRealtimeMessageSequence(t *testing.T) {
	reg := newFakeRegistry()
	reg.identities["c1"] = "u1"
	o, store := newTestOrchestrator(reg, 60*time.Millisecond)

	jobID, err := o.SubmitRealtime(context.Background(), "c1", "", "img1")
	if err != nil {
		t.Fatalf("SubmitRealtime failed: %v", err)
	}

	waitForState(t, store, jobID, domain.JobCompleted)
	// Give any straggling (buggy) tick a chance to show up.
	time.Sleep(20 * time.Millisecond)

	msgs := reg.messages("c1")
	if len(msgs) < 2 {
		t.Fatalf("expected at least ack + result, got %d messages", len(msgs))
	}

	if msgs[0].Type != ws.TypeAnalysisRequestReceived {
		t.Fatalf("first message = %s, want %s", msgs[0].Type, ws.TypeAnalysisRequestReceived)
	}
	ack := msgs[0].Data.(ws.AnalysisRequestReceivedPayload)
	if ack.AnalysisID != jobID || ack.Status != "pending" || !ack.Success {
		t.Errorf("unexpected ack payload: %+v", ack)
	}

	last := msgs[len(msgs)-1]
	if last.Type != ws.TypeAnalysisResults {
		t.Fatalf("last message = %s, want %s", last.Type, ws.TypeAnalysisResults)
	}
	res := last.Data.(ws.AnalysisResultsPayload)
	if res.AnalysisID != jobID || res.Status != "completed" {
		t.Errorf("unexpected result payload: %+v", res)
	}
	if res.Detection.Confidence < 0 || res.Detection.Confidence > 100 {
		t.Errorf("confidence %d out of [0,100]", res.Detection.Confidence)
	}
	if len(res.PreventionTips) == 0 {
		t.Error("expected prevention tips in terminal message")
	}

	// Everything between ack and result must be strictly increasing
	// progress, capped at the ceiling.
	prev := 0
	results := 0
	for _, m := range msgs[1 : len(msgs)-1] {
		if m.Type != ws.TypeAnalysisProgress {
			t.Fatalf("unexpected message type %s between ack and result", m.Type)
		}
		p := m.Data.(ws.AnalysisProgressPayload)
		if p.Progress <= prev {
			t.Errorf("progress not strictly increasing: %d after %d", p.Progress, prev)
		}
		if p.Progress > ProgressCeiling {
			t.Errorf("progress %d exceeds ceiling %d", p.Progress, ProgressCeiling)
		}
		if p.Progress%10 != 0 {
			t.Errorf("progress %d is not a multiple of the step", p.Progress)
		}
		prev = p.Progress
	}
	for _, m := range msgs {
		if m.Type == ws.TypeAnalysisResults {
			results++
		}
	}
	if results != 1 {
		t.Errorf("terminal message delivered %d times, want exactly 1", results)
	}
}

// slowProgressRegistry stalls progress deliveries, modeling an emitter
// goroutine descheduled between its tick and the hub write while the
// provider resolves.
type slowProgressRegistry struct {
	*fakeRegistry
	stall time.Duration
}

func (s *slowProgressRegistry) Send(ctx context.Context, connID string, msg ws.Message) error {
	if msg.Type == ws.TypeAnalysisProgress {
		time.Sleep(s.stall)
	}
	return s.fakeRegistry.Send(ctx, connID, msg)
}

func TestProgressNeverDeliveredAfterResult(t *testing.T) {
	reg := &slowProgressRegistry{fakeRegistry: newFakeRegistry(), stall: 30 * time.Millisecond}
	reg.identities["c1"] = "u1"
	store := NewStore()
	o := New(
		fakeProvider{latency: 15 * time.Millisecond, det: testDetection()},
		reg,
		store,
		catalog.New(catalog.Defaults()),
		nil,
		logger.New("error", false),
		Config{TickInterval: 10 * time.Millisecond, ProgressStep: 10},
	)

	// The provider resolves while the first progress send is still in
	// flight; the stalled delivery must land before the terminal one.
	jobID, err := o.SubmitRealtime(context.Background(), "c1", "", "img1")
	if err != nil {
		t.Fatalf("SubmitRealtime failed: %v", err)
	}

	waitForState(t, store, jobID, domain.JobCompleted)
	time.Sleep(50 * time.Millisecond)

	msgs := reg.messages("c1")
	sawResult := false
	for _, m := range msgs {
		switch m.Type {
		case ws.TypeAnalysisResults:
			sawResult = true
		case ws.TypeAnalysisProgress:
			if sawResult {
				t.Fatal("progress delivered after the terminal result")
			}
		}
	}
	if !sawResult {
		t.Fatal("no terminal result delivered")
	}
}

func TestSubmitRealtimeUnauthenticated(t *testing.T) {
	reg := newFakeRegistry()
	o, _ := newTestOrchestrator(reg, 10*time.Millisecond)

	_, err := o.SubmitRealtime(context.Background(), "c1", "", "img1")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if len(reg.messages("c1")) != 0 {
		t.Error("no messages should be pushed for a rejected request")
	}
}

func TestSubmitRealtimeInlineIdentity(t *testing.T) {
	reg := newFakeRegistry()
	o, store := newTestOrchestrator(reg, 10*time.Millisecond)

	jobID, err := o.SubmitRealtime(context.Background(), "c1", "u9", "img1")
	if err != nil {
		t.Fatalf("SubmitRealtime with inline identity failed: %v", err)
	}

	job, ok := store.Job(jobID)
	if !ok {
		t.Fatal("job not found")
	}
	if job.UserID != "u9" {
		t.Errorf("job owner = %q, want u9", job.UserID)
	}
}

func TestSubmitRealtimeConcurrentNoCrossTalk(t *testing.T) {
	reg := newFakeRegistry()
	reg.identities["c1"] = "u1"
	reg.identities["c2"] = "u2"
	o, store := newTestOrchestrator(reg, 40*time.Millisecond)

	var wg sync.WaitGroup
	ids := make([]string, 2)
	for i, conn := range []string{"c1", "c2"} {
		wg.Add(1)
		go func(i int, conn string) {
			defer wg.Done()
			id, err := o.SubmitRealtime(context.Background(), conn, "", "img-"+conn)
			if err != nil {
				t.Errorf("SubmitRealtime(%s) failed: %v", conn, err)
			}
			ids[i] = id
		}(i, conn)
	}
	wg.Wait()

	if ids[0] == ids[1] {
		t.Fatalf("concurrent submissions produced the same job id %s", ids[0])
	}

	waitForState(t, store, ids[0], domain.JobCompleted)
	waitForState(t, store, ids[1], domain.JobCompleted)

	for i, conn := range []string{"c1", "c2"} {
		for _, m := range reg.messages(conn) {
			var got string
			switch p := m.Data.(type) {
			case ws.AnalysisRequestReceivedPayload:
				got = p.AnalysisID
			case ws.AnalysisProgressPayload:
				got = p.AnalysisID
			case ws.AnalysisResultsPayload:
				got = p.AnalysisID
			default:
				t.Fatalf("unexpected payload %T on %s", m.Data, conn)
			}
			if got != ids[i] {
				t.Errorf("connection %s received message for job %s, owns %s", conn, got, ids[i])
			}
		}
	}
}

func TestConnectionClosedAbandonsJob(t *testing.T) {
	reg := newFakeRegistry()
	reg.identities["c1"] = "u1"
	o, store := newTestOrchestrator(reg, 50*time.Millisecond)

	jobID, err := o.SubmitRealtime(context.Background(), "c1", "", "img1")
	if err != nil {
		t.Fatalf("SubmitRealtime failed: %v", err)
	}

	// Drop the connection before the provider resolves.
	time.Sleep(10 * time.Millisecond)
	reg.closeConn("c1")
	o.ConnectionClosed("c1")

	waitForState(t, store, jobID, domain.JobAbandoned)
	time.Sleep(80 * time.Millisecond) // let the provider resolve

	for _, m := range reg.messages("c1") {
		if m.Type == ws.TypeAnalysisResults {
			t.Fatal("terminal message sent to a closed connection")
		}
	}

	job, _ := store.Job(jobID)
	if job.State != domain.JobAbandoned {
		t.Errorf("job state = %s, want abandoned", job.State)
	}
}

func TestAuthenticate(t *testing.T) {
	reg := newFakeRegistry()
	o, _ := newTestOrchestrator(reg, time.Millisecond)

	if err := o.Authenticate(context.Background(), "c1", "u1"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if got, _ := reg.Identity("c1"); got != "u1" {
		t.Errorf("bound identity = %q, want u1", got)
	}

	msgs := reg.messages("c1")
	if len(msgs) != 1 || msgs[0].Type != ws.TypeAuthenticationResponse {
		t.Fatalf("expected one authentication_response, got %+v", msgs)
	}
	p := msgs[0].Data.(ws.AuthenticationResponsePayload)
	if !p.Success || p.UserID != "u1" {
		t.Errorf("unexpected response payload: %+v", p)
	}

	// Rebinding with a different identity overwrites.
	if err := o.Authenticate(context.Background(), "c1", "u2"); err != nil {
		t.Fatalf("re-Authenticate failed: %v", err)
	}
	if got, _ := reg.Identity("c1"); got != "u2" {
		t.Errorf("rebound identity = %q, want u2", got)
	}
}

func TestSubmitInline(t *testing.T) {
	reg := newFakeRegistry()
	o, _ := newTestOrchestrator(reg, 5*time.Millisecond)

	rec, err := o.SubmitInline(context.Background(), "https://cdn.example.com/uploads/img42.jpg", "u1")
	if err != nil {
		t.Fatalf("SubmitInline failed: %v", err)
	}

	if rec.Detection.Provenance != domain.ProvenanceMatched && rec.Detection.Provenance != domain.ProvenanceFallback {
		t.Errorf("provenance = %q, want matched or fallback", rec.Detection.Provenance)
	}
	if rec.ImageID != "img42.jpg" {
		t.Errorf("image id = %q, want img42.jpg", rec.ImageID)
	}
	if rec.ProcessingTime <= 0 {
		t.Errorf("processing time = %f, want > 0", rec.ProcessingTime)
	}

	// The record must show up in the history instead of the demo rows.
	scans := o.ListRecent("u1", 10)
	if len(scans) != 1 || scans[0].ID != rec.AnalysisID {
		t.Errorf("ListRecent = %+v, want the inline record", scans)
	}

	// No pushed events on the inline path.
	if len(reg.msgs) != 0 {
		t.Errorf("inline path pushed %d messages, want none", len(reg.msgs))
	}
}

func TestSubmitInlineEmptyImage(t *testing.T) {
	reg := newFakeRegistry()
	o, _ := newTestOrchestrator(reg, time.Millisecond)

	if _, err := o.SubmitInline(context.Background(), "  ", "u1"); !errors.Is(err, ErrEmptyImageRef) {
		t.Fatalf("err = %v, want ErrEmptyImageRef", err)
	}
}
