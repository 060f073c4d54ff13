package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdantlabs/leafsight/internal/domain"
)

// SaveCode stores a pending verification code with its TTL
func (s *Store) SaveCode(ctx context.Context, identifier string, code domain.OTPCode, ttl time.Duration) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal code: %w", err)
	}

	key := OTPKey(identifier)
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}
	return nil
}

// GetCode retrieves a pending verification code. A missing or expired
// key is reported as found=false, not as an error.
func (s *Store) GetCode(ctx context.Context, identifier string) (domain.OTPCode, bool, error) {
	key := OTPKey(identifier)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OTPCode{}, false, nil
		}
		return domain.OTPCode{}, false, fmt.Errorf("failed to get code: %w", err)
	}

	var code domain.OTPCode
	if err := json.Unmarshal(data, &code); err != nil {
		return domain.OTPCode{}, false, fmt.Errorf("failed to unmarshal code: %w", err)
	}
	return code, true, nil
}

// DeleteCode removes a pending verification code
func (s *Store) DeleteCode(ctx context.Context, identifier string) error {
	key := OTPKey(identifier)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	return nil
}
