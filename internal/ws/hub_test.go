package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/verdantlabs/leafsight/internal/logger"
)

// fakeTransport records written frames and can be told to fail.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (t *fakeTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return errors.New("broken pipe")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	t.frames = append(t.frames, cp)
	return nil
}

func (t *fakeTransport) Close(reason string) error { return nil }

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

func (t *fakeTransport) last() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

func newTestHub() *Hub {
	return NewHub(logger.New("error", false))
}

func TestRegisterSendUnregister(t *testing.T) {
	h := newTestHub()
	tr := &fakeTransport{}
	id := h.Register(tr)

	if id == "" {
		t.Fatal("empty connection id")
	}
	if h.Count() != 1 {
		t.Fatalf("count = %d, want 1", h.Count())
	}

	if err := h.Send(context.Background(), id, Welcome("hi")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(tr.last(), &env); err != nil {
		t.Fatalf("frame is not a valid envelope: %v", err)
	}
	if env.Type != TypeWelcome {
		t.Errorf("frame type = %s, want %s", env.Type, TypeWelcome)
	}

	h.Unregister(id)
	if h.Count() != 0 {
		t.Errorf("count after unregister = %d, want 0", h.Count())
	}
	if err := h.Send(context.Background(), id, Welcome("late")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after unregister = %v, want ErrClosed", err)
	}

	// Unregister is idempotent.
	h.Unregister(id)
}

func TestSendUnknownConnection(t *testing.T) {
	h := newTestHub()
	if err := h.Send(context.Background(), "no-such-conn", Welcome("hi")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send to unknown connection = %v, want ErrClosed", err)
	}
}

func TestWriteFailureClosesConnection(t *testing.T) {
	h := newTestHub()
	tr := &fakeTransport{fail: true}
	id := h.Register(tr)

	if err := h.Send(context.Background(), id, Welcome("hi")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send over failing transport = %v, want ErrClosed", err)
	}

	// The connection stays closed even if the transport recovers.
	tr.mu.Lock()
	tr.fail = false
	tr.mu.Unlock()
	if err := h.Send(context.Background(), id, Welcome("hi")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after write failure = %v, want ErrClosed", err)
	}
	if tr.count() != 0 {
		t.Errorf("%d frames written to a closed connection", tr.count())
	}
}

func TestBindIdentity(t *testing.T) {
	h := newTestHub()
	id := h.Register(&fakeTransport{})

	if _, ok := h.Identity(id); ok {
		t.Error("identity reported before binding")
	}

	if err := h.BindIdentity(id, "u1"); err != nil {
		t.Fatalf("BindIdentity failed: %v", err)
	}
	if got, ok := h.Identity(id); !ok || got != "u1" {
		t.Errorf("identity = %q, %v; want u1, true", got, ok)
	}

	// Rebinding overwrites.
	if err := h.BindIdentity(id, "u2"); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
	if got, _ := h.Identity(id); got != "u2" {
		t.Errorf("identity after rebind = %q, want u2", got)
	}

	if err := h.BindIdentity("no-such-conn", "u1"); !errors.Is(err, ErrClosed) {
		t.Errorf("BindIdentity on unknown connection = %v, want ErrClosed", err)
	}
}

func TestBroadcastPredicate(t *testing.T) {
	h := newTestHub()
	t1, t2, t3 := &fakeTransport{}, &fakeTransport{}, &fakeTransport{}
	id1 := h.Register(t1)
	id2 := h.Register(t2)
	h.Register(t3) // never authenticated

	if err := h.BindIdentity(id1, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := h.BindIdentity(id2, "u2"); err != nil {
		t.Fatal(err)
	}

	h.Broadcast(context.Background(), Welcome("targeted"), func(userID string) bool {
		return userID == "u1"
	})

	if t1.count() != 1 {
		t.Errorf("u1 received %d frames, want 1", t1.count())
	}
	if t2.count() != 0 || t3.count() != 0 {
		t.Errorf("broadcast leaked: u2=%d, unauthenticated=%d", t2.count(), t3.count())
	}

	// A nil predicate matches every connection.
	h.Broadcast(context.Background(), Welcome("everyone"), nil)
	if t1.count() != 2 || t2.count() != 1 || t3.count() != 1 {
		t.Errorf("nil-predicate broadcast: %d, %d, %d", t1.count(), t2.count(), t3.count())
	}
}

func TestBroadcastDuringChurn(t *testing.T) {
	h := newTestHub()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				id := h.Register(&fakeTransport{})
				h.Unregister(id)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		h.Broadcast(context.Background(), Welcome("churn"), nil)
	}
	close(stop)
	wg.Wait()
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"authenticate","data":{"userId":"u1"}}`))
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.Type != TypeAuthenticate {
		t.Errorf("type = %s", env.Type)
	}
	var p AuthenticatePayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID != "u1" {
		t.Errorf("payload = %+v, err = %v", p, err)
	}

	if _, err := ParseEnvelope([]byte(`not json`)); err == nil {
		t.Error("malformed frame accepted")
	}
	if _, err := ParseEnvelope([]byte(`{"data":{}}`)); err == nil {
		t.Error("envelope without type accepted")
	}
}
