package analysis

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafsight/internal/domain"
)

// Store holds jobs and analysis records in memory. It is owned by the
// service instance and injected into the orchestrator, never ambient.
// Records are append-only during normal operation; pruning happens only
// through the retention collector.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*domain.Job
	records []*domain.AnalysisRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*domain.Job),
	}
}

// NewJob allocates a job with a fresh identifier in the pending state.
// Identifiers are 128-bit random values, unique across the process
// lifetime and immutable after creation.
func (s *Store) NewJob(userID, imageID string) domain.Job {
	job := &domain.Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImageID:   imageID,
		State:     domain.JobPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return *job
}

// Job returns a copy of a job by ID.
func (s *Store) Job(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// Transition moves a job to the given state. It refuses to leave a
// terminal state and reports whether the transition was applied, so a
// late completion cannot overwrite an abandonment (or vice versa).
func (s *Store) Transition(id string, state domain.JobState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.State.Terminal() {
		return false
	}
	job.State = state
	return true
}

// SetProgress raises a job's progress value. Lower or equal values are
// ignored so progress is monotonically non-decreasing; values are
// clamped to 100.
func (s *Store) SetProgress(id string, progress int) {
	if progress > 100 {
		progress = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || progress <= job.Progress {
		return
	}
	job.Progress = progress
}

// SaveRecord appends an analysis record.
func (s *Store) SaveRecord(rec *domain.AnalysisRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
}

// ImportRecords merges records restored from an external mirror,
// skipping any analysis ID already present.
func (s *Store) ImportRecords(recs []*domain.AnalysisRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		seen[r.AnalysisID] = true
	}

	imported := 0
	for _, r := range recs {
		if seen[r.AnalysisID] {
			continue
		}
		s.records = append(s.records, r)
		seen[r.AnalysisID] = true
		imported++
	}
	return imported
}

// RecordCount returns the number of stored records.
func (s *Store) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// PruneRecords removes records older than the cutoff and returns them
// so mirrored copies can be deleted as well.
func (s *Store) PruneRecords(cutoff time.Time) []*domain.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var pruned []*domain.AnalysisRecord
	for _, r := range s.records {
		if r.Timestamp.Before(cutoff) {
			pruned = append(pruned, r)
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return pruned
}

// demoScans is the fixed illustrative list served while no real records
// exist yet. Legacy behavior kept on purpose: fresh installs show the
// client something instead of an empty screen.
func demoScans(now time.Time) []domain.RecentScan {
	return []domain.RecentScan{
		{
			ID:         "mock-1",
			ImageURL:   "/placeholder.svg?height=200&width=200",
			Disease:    "Black Sigatoka",
			Location:   "Farm A",
			Date:       now.Format("2006-01-02"),
			Confidence: 95,
			Severity:   domain.SeverityHigh,
		},
		{
			ID:         "mock-2",
			ImageURL:   "/placeholder.svg?height=200&width=200",
			Disease:    "Yellow Sigatoka",
			Location:   "Farm B",
			Date:       now.Add(-24 * time.Hour).Format("2006-01-02"),
			Confidence: 87,
			Severity:   domain.SeverityMedium,
		},
	}
}

// RecentScans returns record summaries, newest first, filtered by user
// when userID is non-empty and truncated to limit. With no records at
// all it returns the demo list.
func (s *Store) RecentScans(userID string, limit int) []domain.RecentScan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return demoScans(time.Now())
	}

	matched := make([]*domain.AnalysisRecord, 0, len(s.records))
	for _, r := range s.records {
		if userID != "" && r.UserID != userID {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	scans := make([]domain.RecentScan, 0, len(matched))
	for _, r := range matched {
		scans = append(scans, domain.RecentScan{
			ID:         r.AnalysisID,
			ImageURL:   "/api/images/file/" + r.ImageID,
			Disease:    r.Detection.Name,
			Location:   "Unknown",
			Date:       r.Timestamp.Format("2006-01-02"),
			Confidence: r.Detection.ConfidencePercent(),
			Severity:   r.Detection.Severity,
		})
	}
	return scans
}
