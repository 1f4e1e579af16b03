// Package profile defines the behavioral profile aggregate and its
// component records. A profile is the per-user state every event
// mutates and every recommendation request reads.
package profile

import "time"

// Classification labels a user's engagement style.
type Classification string

// Known engagement classifications.
const (
	ClassUnknown       Classification = "unknown"
	ClassBingeConsumer Classification = "binge_consumer"
	ClassCasualBrowser Classification = "casual_browser"
	ClassDeepLearner   Classification = "deep_learner"
	ClassExplorer      Classification = "explorer"
	ClassSpecialist    Classification = "specialist"
)

// InterestScore is a decaying per-topic interest value. Scores are
// unbounded above; entries below the prune threshold are removed.
type InterestScore struct {
	Topic       string    `json:"topic"`
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// EngagementPattern captures the engagement classification and the
// session aggregates it was derived from.
type EngagementPattern struct {
	Classification       Classification `json:"classification"`
	Confidence           float64        `json:"confidence"`
	AvgSessionDuration   float64        `json:"avgSessionDuration"`
	AvgContentPerSession float64        `json:"avgContentPerSession"`
	TimePerContentRatio  float64        `json:"timePerContentRatio"`
	UniqueTopicRatio     float64        `json:"uniqueTopicRatio"`
}

// PeakWindow marks an hour-of-week with elevated activity.
type PeakWindow struct {
	Hour  int     `json:"hour"`
	Day   string  `json:"day"`
	Score float64 `json:"score"`
}

// ContentTransition is one observed edge in the content journey graph.
type ContentTransition struct {
	FromContent string  `json:"fromContent"`
	ToContent   string  `json:"toContent"`
	Frequency   int     `json:"frequency"`
	Probability float64 `json:"probability"`
}

// SessionMetrics summarizes one completed session.
type SessionMetrics struct {
	Duration     float64 `json:"duration"`
	ContentCount int     `json:"contentCount"`
}

// Profile is the per-user behavioral aggregate.
type Profile struct {
	UserID               string                    `json:"userId"`
	Timestamp            time.Time                 `json:"timestamp"`
	Interests            map[string]*InterestScore `json:"interests"`
	Engagement           *EngagementPattern        `json:"engagement"`
	PeakWindows          []PeakWindow              `json:"peakWindows"`
	CommonPaths          []ContentTransition       `json:"commonPaths"`
	TotalSessions        int                       `json:"totalSessions"`
	TotalContentConsumed int                       `json:"totalContentConsumed"`
}

// New returns a bootstrap profile: unknown engagement with zeroed
// aggregates, empty interests and paths, zero counters.
func New(userID string) *Profile {
	return &Profile{
		UserID:    userID,
		Timestamp: time.Now(),
		Interests: make(map[string]*InterestScore),
		Engagement: &EngagementPattern{
			Classification: ClassUnknown,
		},
	}
}

// Clone returns a deep copy. Readers score and rank against a clone so
// concurrent event processing never mutates what they see.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{
		UserID:               p.UserID,
		Timestamp:            p.Timestamp,
		TotalSessions:        p.TotalSessions,
		TotalContentConsumed: p.TotalContentConsumed,
	}
	if p.Interests != nil {
		out.Interests = make(map[string]*InterestScore, len(p.Interests))
		for topic, score := range p.Interests {
			cp := *score
			out.Interests[topic] = &cp
		}
	}
	if p.Engagement != nil {
		eng := *p.Engagement
		out.Engagement = &eng
	}
	if p.PeakWindows != nil {
		out.PeakWindows = make([]PeakWindow, len(p.PeakWindows))
		copy(out.PeakWindows, p.PeakWindows)
	}
	if p.CommonPaths != nil {
		out.CommonPaths = make([]ContentTransition, len(p.CommonPaths))
		copy(out.CommonPaths, p.CommonPaths)
	}
	return out
}

// InterestScoreFor returns the interest score for a topic, or def when
// the topic is untracked.
func (p *Profile) InterestScoreFor(topic string, def float64) float64 {
	if p == nil || p.Interests == nil {
		return def
	}
	if s, ok := p.Interests[topic]; ok {
		return s.Score
	}
	return def
}
