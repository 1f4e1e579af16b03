// Package journey maintains the global content transition graph and
// per-user topic diversity. Transitions feed a Markov-style next
// content prediction and the per-profile common paths digest.
package journey

import (
	"container/list"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/pathwise/engine/internal/domain/event"
	"github.com/pathwise/engine/internal/domain/profile"
)

// Table bounds.
const (
	defaultShardCount = 16
	maxCommonPaths    = 20
	minPathFrequency  = 2
	maxPredictions    = 3
	defaultMaxUsers   = 1000
)

// shard holds a slice of the global transition table. Striping by
// source content keeps writers for unrelated content off each other's
// locks.
type shard struct {
	mu          sync.RWMutex
	transitions map[string]map[string]int
}

type topicSet struct {
	userID string
	topics map[string]struct{}
}

// Analyzer owns the transition table and the bounded per-user topic
// index. One instance is shared by all consumer workers.
type Analyzer struct {
	shards []*shard

	topicsMu sync.Mutex
	topics   map[string]*list.Element
	order    *list.List
	maxUsers int
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithShardCount sets the number of transition table shards.
func WithShardCount(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.shards = make([]*shard, n)
		}
	}
}

// WithMaxUsers bounds the per-user topic index.
func WithMaxUsers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxUsers = n
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		shards:   make([]*shard, defaultShardCount),
		topics:   make(map[string]*list.Element),
		order:    list.New(),
		maxUsers: defaultMaxUsers,
	}
	for _, opt := range opts {
		opt(a)
	}
	for i := range a.shards {
		a.shards[i] = &shard{transitions: make(map[string]map[string]int)}
	}
	return a
}

// AnalyzeJourney folds one journey event into the transition table and
// the user's topic set, rewrites the profile's common paths, and
// refreshes its unique topic ratio. The returned ratio is valid only
// when ok is true, which requires at least one previously consumed
// content item.
func (a *Analyzer) AnalyzeJourney(p *profile.Profile, ev event.Journey) (ratio float64, ok bool) {
	if ev.PreviousContentID != "" && ev.ContentID != "" {
		a.trackTransition(ev.PreviousContentID, ev.ContentID)
		p.CommonPaths = a.commonPaths()
	}

	unique := a.recordTopics(ev.UserID, ev.TopicTags)

	if p.TotalContentConsumed > 0 {
		ratio = float64(unique) / float64(p.TotalContentConsumed)
		if p.Engagement != nil {
			p.Engagement.UniqueTopicRatio = ratio
		}
		return ratio, true
	}
	return 0, false
}

// PredictNext returns up to three likely next content IDs for the
// given content, most frequent first. No frequency floor applies here;
// the floor is a common-paths concern.
func (a *Analyzer) PredictNext(contentID string) []string {
	sh := a.shardFor(contentID)
	sh.mu.RLock()
	targets := sh.transitions[contentID]
	type edge struct {
		to   string
		freq int
	}
	edges := make([]edge, 0, len(targets))
	for to, freq := range targets {
		edges = append(edges, edge{to: to, freq: freq})
	}
	sh.mu.RUnlock()

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].freq != edges[j].freq {
			return edges[i].freq > edges[j].freq
		}
		return edges[i].to < edges[j].to
	})

	n := len(edges)
	if n > maxPredictions {
		n = maxPredictions
	}
	out := make([]string, 0, n)
	for _, e := range edges[:n] {
		out = append(out, e.to)
	}
	return out
}

// UserTopics returns a copy of the topics seen for a user.
func (a *Analyzer) UserTopics(userID string) []string {
	a.topicsMu.Lock()
	defer a.topicsMu.Unlock()

	el, ok := a.topics[userID]
	if !ok {
		return nil
	}
	set := el.Value.(*topicSet)
	out := make([]string, 0, len(set.topics))
	for topic := range set.topics {
		out = append(out, topic)
	}
	return out
}

func (a *Analyzer) trackTransition(from, to string) {
	sh := a.shardFor(from)
	sh.mu.Lock()
	targets, ok := sh.transitions[from]
	if !ok {
		targets = make(map[string]int)
		sh.transitions[from] = targets
	}
	targets[to]++
	sh.mu.Unlock()
}

// commonPaths digests the whole table: every transition seen at least
// twice, probability relative to its source's outgoing total, top 20
// by frequency.
func (a *Analyzer) commonPaths() []profile.ContentTransition {
	var paths []profile.ContentTransition

	for _, sh := range a.shards {
		sh.mu.RLock()
		for from, targets := range sh.transitions {
			total := 0
			for _, freq := range targets {
				total += freq
			}
			for to, freq := range targets {
				if freq < minPathFrequency {
					continue
				}
				paths = append(paths, profile.ContentTransition{
					FromContent: from,
					ToContent:   to,
					Frequency:   freq,
					Probability: float64(freq) / float64(total),
				})
			}
		}
		sh.mu.RUnlock()
	}

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Frequency != paths[j].Frequency {
			return paths[i].Frequency > paths[j].Frequency
		}
		if paths[i].FromContent != paths[j].FromContent {
			return paths[i].FromContent < paths[j].FromContent
		}
		return paths[i].ToContent < paths[j].ToContent
	})

	if len(paths) > maxCommonPaths {
		paths = paths[:maxCommonPaths]
	}
	return paths
}

// recordTopics adds tags to the user's topic set, bumping the user to
// the front of the LRU and evicting the oldest user past capacity.
// Returns the size of the user's set.
func (a *Analyzer) recordTopics(userID string, tags []string) int {
	if userID == "" {
		return 0
	}

	a.topicsMu.Lock()
	defer a.topicsMu.Unlock()

	el, ok := a.topics[userID]
	if !ok {
		el = a.order.PushFront(&topicSet{userID: userID, topics: make(map[string]struct{})})
		a.topics[userID] = el
		if a.order.Len() > a.maxUsers {
			oldest := a.order.Back()
			if oldest != nil {
				a.order.Remove(oldest)
				delete(a.topics, oldest.Value.(*topicSet).userID)
			}
		}
	} else {
		a.order.MoveToFront(el)
	}

	set := el.Value.(*topicSet)
	for _, tag := range tags {
		if tag != "" {
			set.topics[tag] = struct{}{}
		}
	}
	return len(set.topics)
}

func (a *Analyzer) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return a.shards[h.Sum32()%uint32(len(a.shards))]
}
