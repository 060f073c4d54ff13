package scheduler

import (
	"context"

	"github.com/verdantlabs/leafsight/internal/analysis"
	"github.com/verdantlabs/leafsight/internal/logger"
	redisstore "github.com/verdantlabs/leafsight/internal/store/redis"
)

// RecordSyncer restores mirrored analysis records from Redis into the
// in-memory store on startup, so history survives a restart when Redis
// is configured.
type RecordSyncer struct {
	mirror *redisstore.Store
	store  *analysis.Store
	logger logger.Logger
}

// NewRecordSyncer creates a new record syncer
func NewRecordSyncer(
	mirror *redisstore.Store,
	store *analysis.Store,
	log logger.Logger,
) *RecordSyncer {
	return &RecordSyncer{
		mirror: mirror,
		store:  store,
		logger: log,
	}
}

// Sync loads records from Redis and merges them into the memory store
func (rs *RecordSyncer) Sync(ctx context.Context) error {
	records, err := rs.mirror.GetAllRecords(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		rs.logger.Info("no mirrored records found in redis")
		return nil
	}

	imported := rs.store.ImportRecords(records)
	rs.logger.Info("restored analysis records from redis",
		logger.Int("count", imported))
	return nil
}
