// Package interest maintains per-topic interest scores: an
// action-weighted exponential moving average with a seven-day
// half-life decay and pruning of faded topics.
package interest

import (
	"math"
	"strings"
	"time"

	"github.com/pathwise/engine/internal/domain/event"
	"github.com/pathwise/engine/internal/domain/profile"
)

// Scoring constants.
const (
	baseValue        = 10.0
	emaAlpha         = 0.3
	halfLifeDays     = 7.0
	pruneThreshold   = 1.0
	maxTimeWeight    = 1.5
	secondsPerMinute = 60.0
)

// Action multipliers. Unknown actions weigh as started.
const (
	multiplierStarted   = 1.0
	multiplierCompleted = 2.0
	multiplierRevisited = 3.0
	multiplierAbandoned = 0.5
)

// Scorer updates interest maps in place. It is stateless apart from
// its clock, so a single instance serves all users.
type Scorer struct {
	now func() time.Time
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScorer creates a Scorer.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateInterests folds one journey event into the profile's interest
// map and then decays every tracked topic. Events without topic tags
// leave the map untouched, decay included.
func (s *Scorer) UpdateInterests(p *profile.Profile, ev event.Journey) {
	if len(ev.TopicTags) == 0 {
		return
	}
	if p.Interests == nil {
		p.Interests = make(map[string]*profile.InterestScore)
	}

	now := s.now()
	timeWeight := math.Min(float64(ev.TimeInContentSeconds)/secondsPerMinute, maxTimeWeight)
	weight := baseValue * actionMultiplier(ev.Action) * timeWeight

	for _, topic := range ev.TopicTags {
		if topic == "" {
			continue
		}
		if existing, ok := p.Interests[topic]; ok {
			existing.Score = existing.Score*(1-emaAlpha) + weight*emaAlpha
			existing.LastUpdated = now
		} else {
			p.Interests[topic] = &profile.InterestScore{
				Topic:       topic,
				Score:       weight,
				LastUpdated: now,
			}
		}
	}

	s.decay(p, now)
}

// decay halves each score every seven days since its last update and
// prunes topics that fell below the threshold. Day distance is whole
// days, so scores touched within the last 24h keep their value.
func (s *Scorer) decay(p *profile.Profile, now time.Time) {
	for topic, score := range p.Interests {
		days := float64(now.Sub(score.LastUpdated) / (24 * time.Hour))
		if days > 0 {
			score.Score *= math.Pow(0.5, days/halfLifeDays)
		}
		if score.Score < pruneThreshold {
			delete(p.Interests, topic)
		}
	}
}

func actionMultiplier(action string) float64 {
	switch strings.ToLower(action) {
	case "started":
		return multiplierStarted
	case "completed":
		return multiplierCompleted
	case "revisited":
		return multiplierRevisited
	case "abandoned":
		return multiplierAbandoned
	default:
		return multiplierStarted
	}
}
