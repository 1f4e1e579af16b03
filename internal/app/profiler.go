// Package app wires the domain packages into the two services the
// process exposes: the Profiler consuming behavioral events and the
// Recommender serving ranked content.
package app

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/pathwise/engine/internal/adapters/repository"
	"github.com/pathwise/engine/internal/domain/dedupe"
	"github.com/pathwise/engine/internal/domain/engagement"
	"github.com/pathwise/engine/internal/domain/event"
	"github.com/pathwise/engine/internal/domain/interest"
	"github.com/pathwise/engine/internal/domain/journey"
	"github.com/pathwise/engine/internal/domain/profile"
	"github.com/pathwise/engine/pkg/logger"
	"github.com/pathwise/engine/pkg/metrics"
)

// Default profiler configuration constants.
const (
	defaultDedupeSize      = 500000
	defaultLockStripes     = 256
	profileCacheExpiration = 30 * time.Minute
	profileCacheCleanup    = 10 * time.Minute
)

// Drop reasons recorded on the events_dropped counter.
const (
	dropMalformed    = "malformed"
	dropInvalid      = "invalid_envelope"
	dropUnknownTopic = "unknown_topic"
	dropIgnoredType  = "ignored_event_type"
)

// UpdatePublisher emits profile snapshots after each mutation.
type UpdatePublisher interface {
	PublishUpdate(ctx context.Context, prof *profile.Profile) error
}

// Profiler folds raw behavioral events into per-user profiles. Updates
// to one user are serialized through striped locks; unrelated users
// proceed in parallel.
type Profiler struct {
	store     repository.Store
	publisher UpdatePublisher

	deduper    dedupe.Deduper
	interests  *interest.Scorer
	journeys   *journey.Analyzer
	engagement *engagement.Classifier

	cache *gocache.Cache
	loads singleflight.Group

	userLocks []sync.Mutex

	dedupeSize int
	logger     logger.Logger
	now        func() time.Time
}

// ProfilerOption applies a configuration option to the Profiler.
type ProfilerOption func(*Profiler)

// WithDedupeSize sets the idempotency cache capacity.
func WithDedupeSize(size int) ProfilerOption {
	return func(p *Profiler) {
		if size > 0 {
			p.dedupeSize = size
		}
	}
}

// WithLockStripes sets the number of per-user lock stripes.
func WithLockStripes(n int) ProfilerOption {
	return func(p *Profiler) {
		if n > 0 {
			p.userLocks = make([]sync.Mutex, n)
		}
	}
}

// WithProfilerClock overrides the profiler's time source.
func WithProfilerClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// WithJourneyAnalyzer replaces the default journey analyzer.
func WithJourneyAnalyzer(a *journey.Analyzer) ProfilerOption {
	return func(p *Profiler) {
		if a != nil {
			p.journeys = a
		}
	}
}

// WithEngagementClassifier replaces the default classifier.
func WithEngagementClassifier(c *engagement.Classifier) ProfilerOption {
	return func(p *Profiler) {
		if c != nil {
			p.engagement = c
		}
	}
}

// NewProfiler constructs a Profiler over a profile store and an update
// publisher.
func NewProfiler(store repository.Store, publisher UpdatePublisher, opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		store:      store,
		publisher:  publisher,
		interests:  interest.NewScorer(),
		journeys:   journey.NewAnalyzer(),
		engagement: engagement.NewClassifier(),
		cache:      gocache.New(profileCacheExpiration, profileCacheCleanup),
		userLocks:  make([]sync.Mutex, defaultLockStripes),
		dedupeSize: defaultDedupeSize,
		logger:     logger.Get().Named("profiler"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(p.dedupeSize))
	return p
}

// ProcessRaw handles one raw payload off the bus. Failures never
// propagate, so the caller can Ack unconditionally; a failed profile
// load releases the event's idempotency slot so a redelivery gets
// another attempt.
func (p *Profiler) ProcessRaw(ctx context.Context, payload []byte) {
	env, err := event.Decode(payload)
	if err != nil {
		reason := dropMalformed
		if errors.Is(err, event.ErrInvalidEnvelope) {
			reason = dropInvalid
		}
		metrics.RecordEventDropped(reason)
		p.logger.Warn(ctx, "dropping undecodable event", logger.Error(err))
		return
	}

	if key := env.DedupeKey(); key != "" && p.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordEventDuplicate()
		metrics.UpdateDedupeSize(p.deduper.Size())
		return
	}
	metrics.UpdateDedupeSize(p.deduper.Size())

	switch env.Topic {
	case event.TopicContentJourney:
		if err := p.processJourney(ctx, env.Journey()); err != nil {
			p.unrecord(ctx, env.DedupeKey())
			return
		}
		metrics.RecordEventProcessed(env.Topic)
	case event.TopicSessionLifecycle:
		if env.EventType != event.EventTypeSessionEnd {
			metrics.RecordEventDropped(dropIgnoredType)
			return
		}
		if err := p.processSession(ctx, env.Session()); err != nil {
			p.unrecord(ctx, env.DedupeKey())
			return
		}
		metrics.RecordEventProcessed(env.Topic)
	default:
		metrics.RecordEventDropped(dropUnknownTopic)
		p.logger.Warn(ctx, "dropping event with unknown topic",
			logger.String("topic", env.Topic),
			logger.String("userId", env.UserID),
		)
	}
}

// processJourney applies one journey event: interest scores, transition
// tracking, topic diversity, and the consumption counter, in that
// order. The diversity ratio uses the counter value from before this
// event. A load failure is returned so the event can be retried on
// redelivery.
func (p *Profiler) processJourney(ctx context.Context, j event.Journey) error {
	unlock := p.lockUser(j.UserID)
	defer unlock()

	prof, err := p.getOrCreate(ctx, j.UserID)
	if err != nil {
		p.logger.Error(ctx, "profile load failed",
			logger.String("userId", j.UserID),
			logger.Error(err),
		)
		return err
	}

	p.interests.UpdateInterests(prof, j)

	if ratio, ok := p.journeys.AnalyzeJourney(prof, j); ok {
		p.engagement.UpdateBasedOnTopicDiversity(prof, ratio)
	}
	if j.PreviousContentID != "" && j.ContentID != "" {
		metrics.RecordTransitionTracked()
	}

	prof.TotalContentConsumed++
	prof.Timestamp = p.now()

	p.persist(ctx, prof)
	return nil
}

// processSession applies one session_end event.
func (p *Profiler) processSession(ctx context.Context, s event.Session) error {
	unlock := p.lockUser(s.UserID)
	defer unlock()

	prof, err := p.getOrCreate(ctx, s.UserID)
	if err != nil {
		p.logger.Error(ctx, "profile load failed",
			logger.String("userId", s.UserID),
			logger.Error(err),
		)
		return err
	}

	p.engagement.UpdateEngagement(prof, profile.SessionMetrics{
		Duration:     float64(s.DurationSeconds),
		ContentCount: s.ContentCount,
	})

	prof.TotalSessions++
	prof.Timestamp = p.now()

	p.persist(ctx, prof)
	return nil
}

// unrecord releases an event's idempotency slot after a failed update
// so a redelivery is processed instead of dropped as a duplicate.
func (p *Profiler) unrecord(ctx context.Context, key string) {
	if key == "" {
		return
	}
	p.deduper.Unrecord(ctx, key)
	metrics.UpdateDedupeSize(p.deduper.Size())
}

// Profile returns a snapshot of the user's profile, or
// repository.ErrNotFound when the user is untracked. Concurrent misses
// for the same user coalesce into one store load; the load itself runs
// without the user's write lock so readers never queue behind event
// processing.
func (p *Profiler) Profile(ctx context.Context, userID string) (*profile.Profile, error) {
	unlock := p.lockUser(userID)
	if cached, ok := p.cache.Get(userID); ok {
		defer unlock()
		metrics.RecordProfileCacheHit()
		return cached.(*profile.Profile).Clone(), nil
	}
	unlock()
	metrics.RecordProfileCacheMiss()

	prof, err := p.loadShared(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock = p.lockUser(userID)
	defer unlock()

	// An event for this user may have populated the cache while the
	// load ran; the cached instance is the fresher one.
	if cached, ok := p.cache.Get(userID); ok {
		return cached.(*profile.Profile).Clone(), nil
	}
	p.cache.Set(userID, prof, gocache.DefaultExpiration)
	return prof.Clone(), nil
}

// PredictNext returns the most likely next content IDs after contentID.
func (p *Profiler) PredictNext(contentID string) []string {
	return p.journeys.PredictNext(contentID)
}

// Stats returns a snapshot of profiler counters for the stats endpoint.
func (p *Profiler) Stats() map[string]any {
	tracked := p.cache.ItemCount()
	metrics.UpdateTrackedProfiles(tracked)

	return map[string]any{
		"cachedProfiles": tracked,
		"dedupeSize":     p.deduper.Size(),
	}
}

// getOrCreate returns the live (cached) profile for a user, loading it
// from the store or bootstrapping a fresh one. Callers must hold the
// user's lock; the returned pointer is the mutable cached instance.
func (p *Profiler) getOrCreate(ctx context.Context, userID string) (*profile.Profile, error) {
	if cached, ok := p.cache.Get(userID); ok {
		metrics.RecordProfileCacheHit()
		return cached.(*profile.Profile), nil
	}
	metrics.RecordProfileCacheMiss()

	prof, err := p.loadShared(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		prof = profile.New(userID)
	case err != nil:
		return nil, err
	}

	p.cache.Set(userID, prof, gocache.DefaultExpiration)
	return prof, nil
}

// loadShared loads a profile from the store, coalescing concurrent
// misses for the same user into a single store call.
func (p *Profiler) loadShared(ctx context.Context, userID string) (*profile.Profile, error) {
	loaded, err, _ := p.loads.Do(userID, func() (any, error) {
		prof, err := p.store.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		metrics.RecordProfileLoad()
		return prof, nil
	})
	if err != nil {
		return nil, err
	}
	return loaded.(*profile.Profile), nil
}

// persist writes the profile through to the store and publishes the
// update. Neither failure aborts event processing; the cached profile
// stays authoritative.
func (p *Profiler) persist(ctx context.Context, prof *profile.Profile) {
	p.cache.Set(prof.UserID, prof, gocache.DefaultExpiration)

	if err := p.store.Save(ctx, prof); err != nil {
		metrics.RecordProfileSaveError()
		p.logger.Error(ctx, "profile save failed",
			logger.String("userId", prof.UserID),
			logger.Error(err),
		)
	} else {
		metrics.RecordProfileSave()
	}

	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishUpdate(ctx, prof.Clone()); err != nil {
		p.logger.Warn(ctx, "profile update publish failed",
			logger.String("userId", prof.UserID),
			logger.Error(err),
		)
	}
}

func (p *Profiler) lockUser(userID string) func() {
	h := fnv.New32a()
	h.Write([]byte(userID))
	mu := &p.userLocks[h.Sum32()%uint32(len(p.userLocks))]
	mu.Lock()
	return mu.Unlock
}
