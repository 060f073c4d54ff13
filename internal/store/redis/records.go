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

const (
	// DefaultRecordTTL is the default TTL for mirrored analysis records
	DefaultRecordTTL = 30 * 24 * time.Hour
)

// Store mirrors analysis records and verification codes to Redis. The
// in-memory store stays the source of truth; everything here is best
// effort so a Redis outage never fails a request.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// SaveRecord stores an analysis record in Redis
func (s *Store) SaveRecord(ctx context.Context, rec *domain.AnalysisRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := RecordKey(rec.AnalysisID)

	if err := s.client.Set(ctx, key, data, DefaultRecordTTL).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	if err := s.client.SAdd(ctx, AllRecordsKey(), rec.AnalysisID).Err(); err != nil {
		return fmt.Errorf("failed to add record to set: %w", err)
	}

	return nil
}

// GetRecord retrieves an analysis record from Redis by ID
func (s *Store) GetRecord(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	key := RecordKey(id)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec domain.AnalysisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &rec, nil
}

// GetAllRecords retrieves all mirrored analysis records
func (s *Store) GetAllRecords(ctx context.Context) ([]*domain.AnalysisRecord, error) {
	ids, err := s.client.SMembers(ctx, AllRecordsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get record IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.AnalysisRecord{}, nil
	}

	records := make([]*domain.AnalysisRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetRecord(ctx, id)
		if err != nil {
			// Skip records that expired or couldn't be retrieved
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// DeleteRecord removes an analysis record from Redis
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	key := RecordKey(id)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if err := s.client.SRem(ctx, AllRecordsKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove record from set: %w", err)
	}

	return nil
}
