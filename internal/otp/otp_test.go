package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/ws"
)

// captureSender records the codes handed to it.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string // identifier -> last code
	fail  bool
}

func newCaptureSender() *captureSender {
	return &captureSender{codes: make(map[string]string)}
}

func (s *captureSender) SendCode(ctx context.Context, identifier, firstName, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unavailable")
	}
	s.codes[identifier] = code
	return nil
}

func (s *captureSender) code(identifier string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[identifier]
}

// capturePublisher records broadcast messages.
type capturePublisher struct {
	mu   sync.Mutex
	msgs []ws.Message
}

func (p *capturePublisher) Broadcast(ctx context.Context, msg ws.Message, pred func(userID string) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Type
	}
	return out
}

func TestIssueAndVerify(t *testing.T) {
	sender := newCaptureSender()
	pub := &capturePublisher{}
	svc := New(sender, pub, nil, logger.New("error", false), time.Minute)
	ctx := context.Background()

	expires, err := svc.Issue(ctx, "u1", "farmer@example.com", "Ada")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Error("expiry is not in the future")
	}

	code := sender.code("farmer@example.com")
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Fatalf("code %q is not 6 digits", code)
	}

	if err := svc.Verify(ctx, "u1", "email", "farmer@example.com", code); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	// Codes are single use.
	if err := svc.Verify(ctx, "u1", "email", "farmer@example.com", code); !errors.Is(err, ErrNotFound) {
		t.Errorf("second verify = %v, want ErrNotFound", err)
	}

	types := pub.types()
	if len(types) != 2 || types[0] != ws.TypeEmailOTPSent || types[1] != ws.TypeOTPVerified {
		t.Errorf("broadcast types = %v", types)
	}
}

func TestVerifyMismatch(t *testing.T) {
	sender := newCaptureSender()
	svc := New(sender, nil, nil, logger.New("error", false), time.Minute)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "u1", "farmer@example.com", ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.Verify(ctx, "u1", "email", "farmer@example.com", "000000"); !errors.Is(err, ErrMismatch) {
		t.Errorf("err = %v, want ErrMismatch", err)
	}

	// A mismatch does not consume the pending code.
	code := sender.code("farmer@example.com")
	if err := svc.Verify(ctx, "u1", "email", "farmer@example.com", code); err != nil {
		t.Errorf("correct code rejected after a mismatch: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	sender := newCaptureSender()
	svc := New(sender, nil, nil, logger.New("error", false), time.Millisecond)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "u1", "farmer@example.com", ""); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	code := sender.code("farmer@example.com")
	if err := svc.Verify(ctx, "u1", "email", "farmer@example.com", code); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	// The expired code is cleared, not left pending.
	if err := svc.Verify(ctx, "u1", "email", "farmer@example.com", code); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestVerifyNothingPending(t *testing.T) {
	svc := New(newCaptureSender(), nil, nil, logger.New("error", false), time.Minute)
	if err := svc.Verify(context.Background(), "u1", "email", "nobody@example.com", "123456"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIssueSenderFailure(t *testing.T) {
	sender := newCaptureSender()
	sender.fail = true
	pub := &capturePublisher{}
	svc := New(sender, pub, nil, logger.New("error", false), time.Minute)

	if _, err := svc.Issue(context.Background(), "u1", "farmer@example.com", ""); err == nil {
		t.Fatal("Issue succeeded despite delivery failure")
	}
	if len(pub.types()) != 0 {
		t.Error("notification broadcast despite delivery failure")
	}
}
