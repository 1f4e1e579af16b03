// Package scoring ranks catalog candidates for a user. The base score
// is a hybrid of content affinity and collaborative similarity; the
// behavioral score folds in profiled interests, session context, and
// the shorts strategy boost.
package scoring

import (
	"hash/fnv"
	"time"

	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/internal/domain/profile"
)

// Hybrid weights.
const (
	contentBasedWeight  = 0.7
	collaborativeWeight = 0.3

	topicAffinityWeight = 0.4
	typeAffinityWeight  = 0.2
	difficultyWeight    = 0.2
	recencyWeight       = 0.1
	lengthWeight        = 0.1

	baseWeight           = 0.4
	interestWeight       = 0.3
	sessionContextWeight = 0.2

	neutralScore = 0.5
)

// Scorer computes candidate scores. Stateless apart from its clock, so
// a single instance serves all requests.
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

// ScoreCandidates computes the base hybrid score per candidate:
// 70% content affinity, 30% collaborative similarity.
func (s *Scorer) ScoreCandidates(
	userID string,
	candidates []catalog.Content,
	prefs catalog.Preferences,
	skills []catalog.SkillLevel,
) map[string]float64 {
	skillMap := make(map[string]catalog.SkillLevel, len(skills))
	for _, sl := range skills {
		skillMap[sl.Topic] = sl
	}

	scores := make(map[string]float64, len(candidates))
	for _, content := range candidates {
		contentScore := s.contentAffinity(content, prefs, skillMap)
		collabScore := collaborativeScore(userID, content.ID)
		scores[content.ID] = contentScore*contentBasedWeight + collabScore*collaborativeWeight
	}
	return scores
}

// ScoreWithBehavioral enhances the base scores with the behavioral
// profile: 40% base, 30% profiled interest, 20% session context, plus
// the strategy boost, clamped to [0, 1]. A nil profile degrades to
// neutral behavioral factors.
func (s *Scorer) ScoreWithBehavioral(
	userID string,
	candidates []catalog.Content,
	prefs catalog.Preferences,
	skills []catalog.SkillLevel,
	prof *profile.Profile,
	recent []catalog.Content,
) map[string]float64 {
	base := s.ScoreCandidates(userID, candidates, prefs, skills)
	strategy := DetermineStrategy(prof, recent)

	scores := make(map[string]float64, len(candidates))
	for _, content := range candidates {
		baseScore, ok := base[content.ID]
		if !ok {
			baseScore = neutralScore
		}

		interestScore := behavioralInterestScore(content, prof)
		sessionScore := s.sessionScore(content, prof)
		boost := StrategyBoost(content, strategy)

		score := baseScore*baseWeight +
			interestScore*interestWeight +
			sessionScore*sessionContextWeight +
			boost

		scores[content.ID] = clamp01(score)
	}
	return scores
}

// contentAffinity blends topic, type, difficulty, recency, and length
// factors.
func (s *Scorer) contentAffinity(
	content catalog.Content,
	prefs catalog.Preferences,
	skills map[string]catalog.SkillLevel,
) float64 {
	return topicAffinity(content, prefs, skills)*topicAffinityWeight +
		typeAffinity(content.Type, prefs)*typeAffinityWeight +
		difficultyScore(content.DifficultyLevel, prefs)*difficultyWeight +
		s.recencyBoost(content.CreatedAt)*recencyWeight +
		lengthScore(content.EstimatedDurationMinutes, prefs)*lengthWeight
}

// topicAffinity averages the user's preference over the content's
// topics, falling back to skill confidence and then to neutral.
func topicAffinity(
	content catalog.Content,
	prefs catalog.Preferences,
	skills map[string]catalog.SkillLevel,
) float64 {
	if len(prefs.TopicPreferences) == 0 || len(content.Topics) == 0 {
		return neutralScore
	}

	sum := 0.0
	for _, topic := range content.Topics {
		if pref, ok := prefs.TopicPreferences[topic]; ok {
			sum += pref
			continue
		}
		if skill, ok := skills[topic]; ok {
			sum += skill.ConfidenceScore
			continue
		}
		sum += neutralScore
	}
	return sum / float64(len(content.Topics))
}

func typeAffinity(contentType catalog.ContentType, prefs catalog.Preferences) float64 {
	if len(prefs.ContentTypePreferences) == 0 {
		return neutralScore
	}
	if affinity, ok := prefs.ContentTypePreferences[string(contentType)]; ok {
		return affinity
	}
	return neutralScore
}

// difficultyScore targets the zone of proximal development: optimal
// content sits one level above the user's stated difficulty.
func difficultyScore(contentDifficulty int, prefs catalog.Preferences) float64 {
	if contentDifficulty == 0 {
		return neutralScore
	}

	userLevel := prefs.DifficultyPreference
	if userLevel == 0 {
		userLevel = 3
	}
	optimal := userLevel + 1

	distance := contentDifficulty - optimal
	if distance < 0 {
		distance = -distance
	}

	switch distance {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.5
	default:
		return 0.2
	}
}

// recencyBoost steps down over ninety days.
func (s *Scorer) recencyBoost(createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return neutralScore
	}

	days := int64(s.now().Sub(createdAt) / (24 * time.Hour))
	switch {
	case days < 7:
		return 1.0
	case days < 30:
		return 0.8
	case days < 90:
		return 0.6
	default:
		return 0.4
	}
}

// lengthScore prefers content fitting under the daily time target.
func lengthScore(durationMinutes int, prefs catalog.Preferences) float64 {
	if durationMinutes == 0 {
		return neutralScore
	}

	target := prefs.DailyTimeTargetMinutes
	if target == 0 {
		target = 30
	}

	switch {
	case durationMinutes <= target/2:
		return 1.0
	case durationMinutes <= target:
		return 0.8
	default:
		return 0.4
	}
}

// collaborativeScore is a deterministic stand-in for user similarity,
// mapping (user, content) into [0.3, 0.7]. A real similarity model
// plugs in behind the same signature.
func collaborativeScore(userID, contentID string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(contentID))
	return 0.3 + 0.4*float64(h.Sum32())/float64(^uint32(0))
}

// behavioralInterestScore averages the profiled interest over the
// content's topics; untracked topics count as neutral.
func behavioralInterestScore(content catalog.Content, prof *profile.Profile) float64 {
	if prof == nil || len(prof.Interests) == 0 || len(content.Topics) == 0 {
		return neutralScore
	}

	sum := 0.0
	for _, topic := range content.Topics {
		sum += prof.InterestScoreFor(topic, neutralScore)
	}
	return sum / float64(len(content.Topics))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
