// Package otp issues and verifies one-time codes for account
// verification by email or SMS.
package otp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/verdantlabs/leafsight/internal/domain"
	"github.com/verdantlabs/leafsight/internal/logger"
	redisstore "github.com/verdantlabs/leafsight/internal/store/redis"
	"github.com/verdantlabs/leafsight/internal/ws"
)

// DefaultTTL is how long a code stays valid.
const DefaultTTL = 10 * time.Minute

var (
	// ErrNotFound means no code is pending for the identifier.
	ErrNotFound = errors.New("no verification code found")
	// ErrExpired means the pending code's TTL has elapsed.
	ErrExpired = errors.New("verification code has expired")
	// ErrMismatch means the submitted code does not match.
	ErrMismatch = errors.New("invalid verification code")
)

// Sender delivers a code to its recipient. Real implementations talk to
// a mail or SMS provider; those are external collaborators, so the
// default here only logs.
type Sender interface {
	SendCode(ctx context.Context, identifier, firstName, code string) error
}

// LogSender is the delivery stub used when no provider is configured.
type LogSender struct {
	Logger logger.Logger
}

func (s LogSender) SendCode(ctx context.Context, identifier, firstName, code string) error {
	s.Logger.Info("verification code issued (delivery stubbed)",
		logger.String("identifier", identifier))
	return nil
}

// Publisher pushes notifications to connected clients. The hub
// implements it; injecting the capability keeps this package off any
// global connection state.
type Publisher interface {
	Broadcast(ctx context.Context, msg ws.Message, pred func(userID string) bool)
}

// Service issues and verifies codes. Codes live in Redis (native TTL)
// when it is configured, otherwise in the in-process map.
type Service struct {
	sender Sender
	pub    Publisher
	store  *redisstore.Store // optional, nil when Redis is disabled
	logger logger.Logger
	ttl    time.Duration

	mu    sync.Mutex
	codes map[string]domain.OTPCode // identifier -> pending code
}

// New creates the service. store and pub may be nil.
func New(sender Sender, pub Publisher, store *redisstore.Store, log logger.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		sender: sender,
		pub:    pub,
		store:  store,
		logger: log,
		ttl:    ttl,
		codes:  make(map[string]domain.OTPCode),
	}
}

// Issue generates a 6-digit code for the identifier, stores it with the
// configured TTL, hands it to the sender, and notifies the user's live
// connections. It returns the expiry time.
func (s *Service) Issue(ctx context.Context, userID, identifier, firstName string) (time.Time, error) {
	code := domain.OTPCode{
		UserID:    userID,
		Code:      fmt.Sprintf("%06d", 100000+rand.Intn(900000)),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.save(ctx, identifier, code); err != nil {
		return time.Time{}, err
	}

	if err := s.sender.SendCode(ctx, identifier, firstName, code.Code); err != nil {
		return time.Time{}, fmt.Errorf("failed to send verification code: %w", err)
	}

	s.notify(ctx, userID, ws.Message{
		Type: ws.TypeEmailOTPSent,
		Data: map[string]string{"userId": userID, "email": identifier},
	})

	return code.ExpiresAt, nil
}

// Verify checks a submitted code. A matching code is consumed; expired
// codes are cleared so the client must request a new one.
func (s *Service) Verify(ctx context.Context, userID, otpType, identifier, submitted string) error {
	code, found, err := s.load(ctx, identifier)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	if time.Now().After(code.ExpiresAt) {
		s.delete(ctx, identifier)
		return ErrExpired
	}

	if code.Code != submitted {
		return ErrMismatch
	}

	s.delete(ctx, identifier)
	s.logger.Info("verification code accepted",
		logger.String("user_id", userID))

	s.notify(ctx, userID, ws.Message{
		Type: ws.TypeOTPVerified,
		Data: map[string]string{"userId": userID, "otpType": otpType},
	})

	return nil
}

func (s *Service) save(ctx context.Context, identifier string, code domain.OTPCode) error {
	if s.store != nil {
		return s.store.SaveCode(ctx, identifier, code, s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[identifier] = code
	return nil
}

func (s *Service) load(ctx context.Context, identifier string) (domain.OTPCode, bool, error) {
	if s.store != nil {
		return s.store.GetCode(ctx, identifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[identifier]
	return code, ok, nil
}

func (s *Service) delete(ctx context.Context, identifier string) {
	if s.store != nil {
		if err := s.store.DeleteCode(ctx, identifier); err != nil {
			s.logger.Warn("failed to delete verification code",
				logger.Error(err))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, identifier)
}

func (s *Service) notify(ctx context.Context, userID string, msg ws.Message) {
	if s.pub == nil {
		return
	}
	s.pub.Broadcast(ctx, msg, func(connUserID string) bool {
		return connUserID == userID
	})
}
