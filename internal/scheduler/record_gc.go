package scheduler

import (
	"context"
	"time"

	"github.com/verdantlabs/leafsight/internal/analysis"
	"github.com/verdantlabs/leafsight/internal/logger"
	redisstore "github.com/verdantlabs/leafsight/internal/store/redis"
)

const (
	// DefaultRetention is the duration after which analysis records are pruned
	DefaultRetention = 30 * 24 * time.Hour // 30 days
)

// RecordGC handles cleanup of old analysis records
type RecordGC struct {
	store     *analysis.Store
	mirror    *redisstore.Store
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewRecordGC creates a new record garbage collector
func NewRecordGC(
	store *analysis.Store,
	mirror *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *RecordGC {
	if retention == 0 {
		retention = DefaultRetention
	}

	return &RecordGC{
		store:     store,
		mirror:    mirror,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection process
func (gc *RecordGC) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial record collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("record collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *RecordGC) Stop() {
	close(gc.stopCh)
}

// Collect prunes records older than the retention window, both in
// memory and in the Redis mirror (best effort).
func (gc *RecordGC) Collect(ctx context.Context) error {
	cutoff := time.Now().Add(-gc.retention)
	pruned := gc.store.PruneRecords(cutoff)

	if len(pruned) == 0 {
		gc.logger.Debug("no records to collect")
		return nil
	}

	for _, rec := range pruned {
		if gc.mirror == nil {
			continue
		}
		if err := gc.mirror.DeleteRecord(ctx, rec.AnalysisID); err != nil {
			gc.logger.Warn("failed to delete mirrored record",
				logger.String("analysis_id", rec.AnalysisID),
				logger.Error(err))
		}
	}

	gc.logger.Info("record collection completed",
		logger.Int("records_deleted", len(pruned)))
	return nil
}
