package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pathwise/engine/internal/adapters/repository"
	"github.com/pathwise/engine/internal/domain/bandit"
	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/internal/domain/profile"
	"github.com/pathwise/engine/internal/domain/scoring"
	"github.com/pathwise/engine/pkg/logger"
	"github.com/pathwise/engine/pkg/metrics"
)

// Default recommender configuration constants.
const (
	defaultRecommendationLimit = 10
	defaultMaxLimit            = 50
	defaultCacheTTL            = 5 * time.Minute
	recentContentWindow        = 5
	hybridAlgorithm            = "hybrid"
)

// ProfileSource supplies profile snapshots for scoring.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (*profile.Profile, error)
}

// Recommender serves ranked recommendation lists. It is the query side:
// it reads profiles but never mutates them.
type Recommender struct {
	catalog  catalog.Catalog
	history  catalog.History
	sink     catalog.Recommendations
	profiles ProfileSource

	scorer *scoring.Scorer
	ranker *bandit.Ranker

	cache        *gocache.Cache
	cacheTTL     time.Duration
	defaultLimit int
	maxLimit     int

	logger logger.Logger
	now    func() time.Time
}

// RecommenderOption applies a configuration option to the Recommender.
type RecommenderOption func(*Recommender)

// WithDefaultLimit sets the list size used when callers pass none.
func WithDefaultLimit(limit int) RecommenderOption {
	return func(r *Recommender) {
		if limit > 0 {
			r.defaultLimit = limit
		}
	}
}

// WithMaxLimit caps the requestable list size.
func WithMaxLimit(limit int) RecommenderOption {
	return func(r *Recommender) {
		if limit > 0 {
			r.maxLimit = limit
		}
	}
}

// WithCacheTTL sets how long served lists stay cached.
func WithCacheTTL(ttl time.Duration) RecommenderOption {
	return func(r *Recommender) {
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *scoring.Scorer) RecommenderOption {
	return func(r *Recommender) {
		if s != nil {
			r.scorer = s
		}
	}
}

// WithRanker replaces the default bandit ranker.
func WithRanker(rk *bandit.Ranker) RecommenderOption {
	return func(r *Recommender) {
		if rk != nil {
			r.ranker = rk
		}
	}
}

// WithRecommenderClock overrides the time source.
func WithRecommenderClock(now func() time.Time) RecommenderOption {
	return func(r *Recommender) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecommender constructs a Recommender over the content
// collaborators and a profile source.
func NewRecommender(
	cat catalog.Catalog,
	history catalog.History,
	sink catalog.Recommendations,
	profiles ProfileSource,
	opts ...RecommenderOption,
) *Recommender {
	r := &Recommender{
		catalog:      cat,
		history:      history,
		sink:         sink,
		profiles:     profiles,
		scorer:       scoring.NewScorer(),
		ranker:       bandit.NewRanker(),
		cacheTTL:     defaultCacheTTL,
		defaultLimit: defaultRecommendationLimit,
		maxLimit:     defaultMaxLimit,
		logger:       logger.Get().Named("recommender"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.cache = gocache.New(r.cacheTTL, r.cacheTTL)
	return r
}

// Recommend returns up to limit recommendation records for the user,
// most relevant first. Served lists are cached per (user, limit) until
// the TTL expires or feedback invalidates them.
func (r *Recommender) Recommend(ctx context.Context, userID string, limit int) ([]catalog.Recommendation, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if limit > r.maxLimit {
		limit = r.maxLimit
	}

	cacheKey := userID + ":" + strconv.Itoa(limit)
	if cached, ok := r.cache.Get(cacheKey); ok {
		metrics.RecordRecommendationCacheHit()
		return cached.([]catalog.Recommendation), nil
	}

	candidates, err := r.unseenCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.RecordNoContentAvailable()
		return nil, ErrNoContentAvailable
	}

	prefs := r.preferences(ctx, userID)
	skills := r.skills(ctx, userID)
	recent := r.recent(ctx, userID)
	prof := r.profile(ctx, userID)

	start := r.now()
	scores := r.scorer.ScoreWithBehavioral(userID, candidates, prefs, skills, prof, recent)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	ranked, branch := r.ranker.Rank(candidates, scores, prof)
	metrics.RecordBanditSelection(branch)
	ranked = backfillByScore(ranked, candidates, scores)

	selected := diversifyByType(ranked, limit)

	strategy := scoring.DetermineStrategy(prof, recent)
	records := make([]catalog.Recommendation, 0, len(selected))
	for _, content := range selected {
		records = append(records, catalog.Recommendation{
			ID:        uuid.NewString(),
			UserID:    userID,
			ContentID: content.ID,
			Score:     scores[content.ID],
			Algorithm: hybridAlgorithm,
			Reason:    scoring.StrategyReason(strategy),
			CreatedAt: r.now(),
		})
	}

	if err := r.sink.SaveAll(ctx, records); err != nil {
		r.logger.Warn(ctx, "saving recommendations failed",
			logger.String("userId", userID),
			logger.Error(err),
		)
	}

	r.cache.Set(cacheKey, records, gocache.DefaultExpiration)
	metrics.RecordRecommendationsServed()
	return records, nil
}

// NextContent returns the single best recommendation for the user.
func (r *Recommender) NextContent(ctx context.Context, userID string) (catalog.Recommendation, error) {
	records, err := r.Recommend(ctx, userID, r.defaultLimit)
	if err != nil {
		return catalog.Recommendation{}, err
	}
	if len(records) == 0 {
		return catalog.Recommendation{}, ErrNoContentAvailable
	}
	return records[0], nil
}

// RecordFeedback persists explicit feedback and invalidates the user's
// cached lists so the next request re-ranks.
func (r *Recommender) RecordFeedback(ctx context.Context, userID, contentID string, feedback catalog.FeedbackType) error {
	if err := r.sink.RecordFeedback(ctx, userID, contentID, feedback); err != nil {
		return fmt.Errorf("record feedback for %s: %w", userID, err)
	}

	prefix := userID + ":"
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
		}
	}
	return nil
}

// Stats returns a snapshot of recommender counters for the stats
// endpoint.
func (r *Recommender) Stats() map[string]any {
	return map[string]any{
		"cachedLists":  r.cache.ItemCount(),
		"defaultLimit": r.defaultLimit,
		"maxLimit":     r.maxLimit,
	}
}

// unseenCandidates returns published content the user has not consumed.
func (r *Recommender) unseenCandidates(ctx context.Context, userID string) ([]catalog.Content, error) {
	published, err := r.catalog.Published(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published content: %w", err)
	}

	seenIDs, err := r.history.SeenContentIDs(ctx, userID)
	if err != nil {
		r.logger.Warn(ctx, "history lookup failed, recommending from full catalog",
			logger.String("userId", userID),
			logger.Error(err),
		)
	}
	seen := make(map[string]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	candidates := make([]catalog.Content, 0, len(published))
	for _, content := range published {
		if _, ok := seen[content.ID]; ok {
			continue
		}
		candidates = append(candidates, content)
	}
	return candidates, nil
}

func (r *Recommender) preferences(ctx context.Context, userID string) catalog.Preferences {
	prefs, err := r.history.Preferences(ctx, userID)
	if err != nil {
		r.logger.Warn(ctx, "preferences lookup failed, using defaults",
			logger.String("userId", userID),
			logger.Error(err),
		)
		return catalog.DefaultPreferences()
	}
	return prefs
}

func (r *Recommender) skills(ctx context.Context, userID string) []catalog.SkillLevel {
	skills, err := r.history.SkillLevels(ctx, userID)
	if err != nil {
		return nil
	}
	return skills
}

func (r *Recommender) recent(ctx context.Context, userID string) []catalog.Content {
	recent, err := r.history.RecentContent(ctx, userID, recentContentWindow)
	if err != nil {
		return nil
	}
	return recent
}

// profile fetches the behavioral snapshot; untracked users score
// without one.
func (r *Recommender) profile(ctx context.Context, userID string) *profile.Profile {
	prof, err := r.profiles.Profile(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn(ctx, "profile lookup failed",
				logger.String("userId", userID),
				logger.Error(err),
			)
		}
		return nil
	}
	return prof
}

// backfillByScore re-appends candidates the explore branch dropped,
// best score first, so the served list can always reach the limit.
func backfillByScore(ranked, candidates []catalog.Content, scores map[string]float64) []catalog.Content {
	if len(ranked) == len(candidates) {
		return ranked
	}

	present := make(map[string]struct{}, len(ranked))
	for _, content := range ranked {
		present[content.ID] = struct{}{}
	}

	missing := make([]catalog.Content, 0, len(candidates)-len(ranked))
	for _, content := range candidates {
		if _, ok := present[content.ID]; !ok {
			missing = append(missing, content)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return scores[missing[i].ID] > scores[missing[j].ID]
	})
	return append(ranked, missing...)
}

// diversifyByType interleaves content types round-robin in ranked
// order, then backfills from the ranking when a type runs dry.
func diversifyByType(ranked []catalog.Content, limit int) []catalog.Content {
	if limit > len(ranked) {
		limit = len(ranked)
	}
	if limit <= 0 {
		return nil
	}

	byType := make(map[catalog.ContentType][]catalog.Content)
	typeOrder := make([]catalog.ContentType, 0)
	for _, content := range ranked {
		if _, ok := byType[content.Type]; !ok {
			typeOrder = append(typeOrder, content.Type)
		}
		byType[content.Type] = append(byType[content.Type], content)
	}

	out := make([]catalog.Content, 0, limit)
	picked := make(map[string]struct{}, limit)
	for len(out) < limit {
		progressed := false
		for _, t := range typeOrder {
			bucket := byType[t]
			if len(bucket) == 0 {
				continue
			}
			content := bucket[0]
			byType[t] = bucket[1:]
			if _, ok := picked[content.ID]; ok {
				continue
			}
			picked[content.ID] = struct{}{}
			out = append(out, content)
			progressed = true
			if len(out) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}

	// Backfill preserves the bandit's ordering for anything the
	// round-robin pass skipped.
	for _, content := range ranked {
		if len(out) == limit {
			break
		}
		if _, ok := picked[content.ID]; ok {
			continue
		}
		picked[content.ID] = struct{}{}
		out = append(out, content)
	}
	return out
}
