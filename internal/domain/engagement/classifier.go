// Package engagement tracks recent sessions per user and derives an
// engagement classification from their aggregates. Session history is
// bounded per user and across users.
package engagement

import (
	"container/list"
	"hash/fnv"
	"sync"

	"github.com/pathwise/engine/internal/domain/profile"
)

// History bounds and rule thresholds.
const (
	defaultShardCount  = 16
	defaultMaxUsers    = 1000
	maxSessionsPerUser = 10
	minSessions        = 3

	bingeDurationSeconds   = 1800.0
	bingeContentCount      = 10.0
	casualDurationSeconds  = 600.0
	casualContentCount     = 5.0
	deepTimePerContent     = 120.0
	explorerTimePerContent = 30.0

	diversityExplorerRatio   = 0.6
	diversitySpecialistRatio = 0.3
	diversityMinConsumed     = 10
	diversityMinConfidence   = 0.6
)

type userHistory struct {
	userID   string
	sessions []profile.SessionMetrics
}

// historyShard is one stripe of the user index. Each stripe runs its
// own LRU so unrelated users never contend on a single lock.
type historyShard struct {
	mu       sync.Mutex
	users    map[string]*list.Element
	order    *list.List
	capacity int
}

// Classifier owns bounded session history and rewrites profile
// engagement patterns from it.
type Classifier struct {
	shards   []*historyShard
	maxUsers int
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithMaxUsers bounds the total number of tracked users.
func WithMaxUsers(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxUsers = n
		}
	}
}

// WithShardCount sets the number of history stripes.
func WithShardCount(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.shards = make([]*historyShard, n)
		}
	}
}

// NewClassifier creates a Classifier.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		shards:   make([]*historyShard, defaultShardCount),
		maxUsers: defaultMaxUsers,
	}
	for _, opt := range opts {
		opt(c)
	}
	perShard := c.maxUsers / len(c.shards)
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = &historyShard{
			users:    make(map[string]*list.Element),
			order:    list.New(),
			capacity: perShard,
		}
	}
	return c
}

// UpdateEngagement appends one session to the user's history and
// rewrites the profile's engagement pattern. Fewer than three sessions
// classify as unknown with zero confidence.
func (c *Classifier) UpdateEngagement(p *profile.Profile, m profile.SessionMetrics) {
	sessions := c.appendSession(p.UserID, m)

	prevRatio := 0.0
	if p.Engagement != nil {
		prevRatio = p.Engagement.UniqueTopicRatio
	}

	pattern := classify(sessions)
	pattern.UniqueTopicRatio = prevRatio
	p.Engagement = pattern
}

// UpdateBasedOnTopicDiversity reconsiders the classification from the
// topic diversity angle. High diversity reads as an explorer; low
// diversity with enough consumption reads as a specialist. Profiles
// with no engagement pattern yet are left untouched.
func (c *Classifier) UpdateBasedOnTopicDiversity(p *profile.Profile, ratio float64) {
	if p.Engagement == nil {
		return
	}
	eng := p.Engagement
	eng.UniqueTopicRatio = ratio

	switch {
	case ratio > diversityExplorerRatio:
		eng.Classification = profile.ClassExplorer
		eng.Confidence = maxFloat(eng.Confidence, diversityMinConfidence)
	case ratio < diversitySpecialistRatio && p.TotalContentConsumed > diversityMinConsumed:
		eng.Classification = profile.ClassSpecialist
		eng.Confidence = maxFloat(eng.Confidence, diversityMinConfidence)
	}
}

// Sessions returns a copy of the tracked sessions for a user.
func (c *Classifier) Sessions(userID string) []profile.SessionMetrics {
	sh := c.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	el, ok := sh.users[userID]
	if !ok {
		return nil
	}
	hist := el.Value.(*userHistory)
	out := make([]profile.SessionMetrics, len(hist.sessions))
	copy(out, hist.sessions)
	return out
}

// appendSession records a session, keeping the newest ten per user and
// evicting the least recently touched user past shard capacity.
func (c *Classifier) appendSession(userID string, m profile.SessionMetrics) []profile.SessionMetrics {
	sh := c.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	el, ok := sh.users[userID]
	if !ok {
		el = sh.order.PushFront(&userHistory{userID: userID})
		sh.users[userID] = el
		if sh.order.Len() > sh.capacity {
			oldest := sh.order.Back()
			if oldest != nil {
				sh.order.Remove(oldest)
				delete(sh.users, oldest.Value.(*userHistory).userID)
			}
		}
	} else {
		sh.order.MoveToFront(el)
	}

	hist := el.Value.(*userHistory)
	hist.sessions = append(hist.sessions, m)
	if len(hist.sessions) > maxSessionsPerUser {
		hist.sessions = hist.sessions[len(hist.sessions)-maxSessionsPerUser:]
	}

	out := make([]profile.SessionMetrics, len(hist.sessions))
	copy(out, hist.sessions)
	return out
}

// classify applies the ordered rule set to the session aggregates.
func classify(sessions []profile.SessionMetrics) *profile.EngagementPattern {
	if len(sessions) < minSessions {
		return &profile.EngagementPattern{Classification: profile.ClassUnknown}
	}

	var totalDuration, totalContent float64
	for _, s := range sessions {
		totalDuration += s.Duration
		totalContent += float64(s.ContentCount)
	}
	n := float64(len(sessions))
	avgDuration := totalDuration / n
	avgContent := totalContent / n
	timePerContent := avgDuration / maxFloat(avgContent, 1)

	pattern := &profile.EngagementPattern{
		AvgSessionDuration:   avgDuration,
		AvgContentPerSession: avgContent,
		TimePerContentRatio:  timePerContent,
	}

	switch {
	case avgDuration > bingeDurationSeconds && avgContent > bingeContentCount:
		pattern.Classification = profile.ClassBingeConsumer
		pattern.Confidence = 0.70
	case avgDuration < casualDurationSeconds && avgContent < casualContentCount:
		pattern.Classification = profile.ClassCasualBrowser
		pattern.Confidence = 0.70
	case timePerContent > deepTimePerContent:
		pattern.Classification = profile.ClassDeepLearner
		pattern.Confidence = 0.75
	case timePerContent < explorerTimePerContent:
		pattern.Classification = profile.ClassExplorer
		pattern.Confidence = 0.65
	default:
		pattern.Classification = profile.ClassCasualBrowser
		pattern.Confidence = 0.50
	}
	return pattern
}

func (c *Classifier) shardFor(userID string) *historyShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
