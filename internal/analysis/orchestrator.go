// Package analysis coordinates the lifecycle of analysis jobs: request
// acknowledgment, progress emission, detection, and terminal delivery.
package analysis

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/verdantlabs/leafsight/internal/catalog"
	"github.com/verdantlabs/leafsight/internal/detector"
	"github.com/verdantlabs/leafsight/internal/domain"
	"github.com/verdantlabs/leafsight/internal/logger"
	redisstore "github.com/verdantlabs/leafsight/internal/store/redis"
	"github.com/verdantlabs/leafsight/internal/ws"
)

// ErrUnauthenticated is returned when a real-time request arrives on a
// connection without a bound identity and no inline identity either.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrEmptyImageRef is returned when an inline request has no image.
var ErrEmptyImageRef = errors.New("image reference is required")

// ConnRegistry is the slice of the connection hub the orchestrator and
// emitter need.
type ConnRegistry interface {
	BindIdentity(connID, userID string) error
	Identity(connID string) (string, bool)
	Send(ctx context.Context, connID string, msg ws.Message) error
}

// Config tunes the progress emitter.
type Config struct {
	TickInterval time.Duration // period between progress pushes
	ProgressStep int           // increment per tick
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.ProgressStep <= 0 {
		c.ProgressStep = 10
	}
	return c
}

// Orchestrator supervises analysis jobs across both transport paths:
// pushed events over the persistent channel and direct request/reply.
type Orchestrator struct {
	provider detector.Provider
	conns    ConnRegistry
	store    *Store
	catalog  *catalog.Catalog
	mirror   *redisstore.Store // optional, nil when Redis is disabled
	emitter  *Emitter
	logger   logger.Logger
	cfg      Config

	mu     sync.Mutex
	active map[string]map[string]*Handle // connID -> jobID -> emitter handle
}

// New wires an orchestrator. mirror may be nil.
func New(
	provider detector.Provider,
	conns ConnRegistry,
	store *Store,
	cat *catalog.Catalog,
	mirror *redisstore.Store,
	log logger.Logger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		conns:    conns,
		store:    store,
		catalog:  cat,
		mirror:   mirror,
		emitter:  NewEmitter(conns, store, log),
		logger:   log,
		cfg:      cfg.withDefaults(),
		active:   make(map[string]map[string]*Handle),
	}
}

// Authenticate binds an identity to a connection and acknowledges it.
// Idempotent; a different identity simply overwrites the previous one.
func (o *Orchestrator) Authenticate(ctx context.Context, connID, userID string) error {
	if err := o.conns.BindIdentity(connID, userID); err != nil {
		return err
	}
	return o.conns.Send(ctx, connID, ws.AuthenticationResponse(userID))
}

// SubmitRealtime starts a real-time analysis job for a connection. The
// identity comes from the connection binding, or inlineUserID as a
// fallback; with neither, ErrUnauthenticated is returned and no job is
// created. On success the acknowledgment is pushed immediately, the
// progress emitter starts, and the detection runs in the background.
func (o *Orchestrator) SubmitRealtime(ctx context.Context, connID, inlineUserID, imageID string) (string, error) {
	userID, ok := o.conns.Identity(connID)
	if !ok || userID == "" {
		userID = inlineUserID
	}
	if userID == "" {
		return "", ErrUnauthenticated
	}

	job := o.store.NewJob(userID, imageID)

	o.logger.Info("analysis request received",
		logger.String("job_id", job.ID),
		logger.String("image_id", imageID),
		logger.String("user_id", userID))

	if err := o.conns.Send(ctx, connID, ws.AnalysisRequestReceived(job.ID, imageID)); err != nil {
		// Connection already gone: nothing can be delivered.
		o.store.Transition(job.ID, domain.JobAbandoned)
		return job.ID, nil
	}

	o.store.Transition(job.ID, domain.JobInProgress)
	handle := o.emitter.Start(job.ID, connID, imageID, o.cfg.TickInterval, o.cfg.ProgressStep)
	o.track(connID, job.ID, handle)

	go o.runRealtime(job.ID, connID, userID, imageID, handle)

	return job.ID, nil
}

// runRealtime awaits the detection and delivers the terminal message.
// The provider is not cancellable: it runs to completion even if the
// connection drops, and the result is discarded in that case.
func (o *Orchestrator) runRealtime(jobID, connID, userID, imageID string, handle *Handle) {
	ctx := context.Background()
	started := time.Now()
	det := o.provider.Detect(ctx, imageID)

	handle.Cancel()
	o.untrack(connID, jobID)

	if job, ok := o.store.Job(jobID); ok && job.State == domain.JobAbandoned {
		o.logger.Debug("discarding result for abandoned job",
			logger.String("job_id", jobID))
		return
	}

	err := o.conns.Send(ctx, connID, o.resultsMessage(jobID, imageID, det))
	if errors.Is(err, ws.ErrClosed) {
		o.store.Transition(jobID, domain.JobAbandoned)
		o.logger.Debug("connection closed before terminal result",
			logger.String("job_id", jobID))
		return
	}

	o.store.Transition(jobID, domain.JobCompleted)
	o.store.SetProgress(jobID, 100)
	o.saveRecord(ctx, &domain.AnalysisRecord{
		AnalysisID:     jobID,
		ImageID:        imageID,
		UserID:         userID,
		Detection:      det,
		ProcessingTime: time.Since(started).Seconds(),
		Timestamp:      time.Now(),
		CreatedAt:      time.Now(),
	})

	o.logger.Info("analysis completed",
		logger.String("job_id", jobID),
		logger.String("disease", det.Name))
}

// SubmitInline runs the same job synchronously: no acknowledgment, no
// progress events, the detection comes back as the direct reply. The
// never-fail provider contract means this never returns a provider
// error.
func (o *Orchestrator) SubmitInline(ctx context.Context, imageRef, userID string) (*domain.AnalysisRecord, error) {
	if strings.TrimSpace(imageRef) == "" {
		return nil, ErrEmptyImageRef
	}

	job := o.store.NewJob(userID, imageIDFromRef(imageRef))
	o.store.Transition(job.ID, domain.JobInProgress)

	started := time.Now()
	det := o.provider.Detect(ctx, imageRef)

	o.store.Transition(job.ID, domain.JobCompleted)

	rec := &domain.AnalysisRecord{
		AnalysisID:     job.ID,
		ImageID:        job.ImageID,
		UserID:         userID,
		Detection:      det,
		ProcessingTime: time.Since(started).Seconds(),
		Timestamp:      time.Now(),
		CreatedAt:      time.Now(),
	}
	o.saveRecord(ctx, rec)

	o.logger.Info("inline analysis completed",
		logger.String("job_id", job.ID),
		logger.String("disease", det.Name))

	return rec, nil
}

// ListRecent returns persisted job summaries, newest first, optionally
// filtered by identity and truncated to limit.
func (o *Orchestrator) ListRecent(userID string, limit int) []domain.RecentScan {
	return o.store.RecentScans(userID, limit)
}

// ConnectionClosed cancels the emitters of every job owned by a
// disconnected connection and marks those jobs abandoned. Results still
// in flight are discarded when they resolve.
func (o *Orchestrator) ConnectionClosed(connID string) {
	o.mu.Lock()
	handles := o.active[connID]
	delete(o.active, connID)
	o.mu.Unlock()

	for jobID, h := range handles {
		h.Cancel()
		o.store.Transition(jobID, domain.JobAbandoned)
		o.logger.Info("job abandoned, owning connection lost",
			logger.String("job_id", jobID),
			logger.String("conn_id", connID))
	}
}

func (o *Orchestrator) track(connID, jobID string, h *Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active[connID] == nil {
		o.active[connID] = make(map[string]*Handle)
	}
	o.active[connID][jobID] = h
}

func (o *Orchestrator) untrack(connID, jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.active[connID], jobID)
	if len(o.active[connID]) == 0 {
		delete(o.active, connID)
	}
}

// resultsMessage builds the terminal envelope, enriching the detection
// with the catalog's prevention guidance.
func (o *Orchestrator) resultsMessage(jobID, imageID string, det domain.Detection) ws.Message {
	tips := catalog.GenericPreventionTips
	if entry, ok := o.catalog.Get(det.Name); ok && len(entry.PreventionTips) > 0 {
		tips = entry.PreventionTips
	}

	return ws.Message{
		Type: ws.TypeAnalysisResults,
		Data: ws.AnalysisResultsPayload{
			AnalysisID: jobID,
			ImageID:    imageID,
			Status:     "completed",
			Detection: ws.DetectionPayload{
				Name:           det.Name,
				ScientificName: det.ScientificName,
				Confidence:     det.ConfidencePercent(),
				Severity:       string(det.Severity),
				Description:    det.Description,
			},
			Treatments:     det.Treatments,
			PreventionTips: tips,
		},
	}
}

// saveRecord persists to memory and mirrors to Redis best effort.
func (o *Orchestrator) saveRecord(ctx context.Context, rec *domain.AnalysisRecord) {
	o.store.SaveRecord(rec)

	if o.mirror != nil {
		if err := o.mirror.SaveRecord(ctx, rec); err != nil {
			o.logger.Warn("failed to mirror record to redis",
				logger.String("analysis_id", rec.AnalysisID),
				logger.Error(err))
		}
	}
}

// SaveRecord persists an externally produced record (clients that ran
// the analysis elsewhere can push their result for history).
func (o *Orchestrator) SaveRecord(ctx context.Context, rec *domain.AnalysisRecord) {
	o.saveRecord(ctx, rec)
}

// imageIDFromRef extracts the trailing path element of an image URL.
func imageIDFromRef(ref string) string {
	base := path.Base(strings.TrimRight(strings.TrimSpace(ref), "/"))
	if base == "." || base == "/" || base == "" {
		return "unknown"
	}
	return base
}
