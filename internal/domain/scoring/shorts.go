package scoring

import (
	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/internal/domain/profile"
)

// Shorts detection bounds, in seconds.
const (
	shortsMinSeconds = 20
	shortsMaxSeconds = 90
)

// Strategy selects how candidates are filtered and boosted based on
// the user's current consumption mode.
type Strategy string

// Known strategies.
const (
	StrategyShortsOnly      Strategy = "shorts_only"
	StrategyDiscoveryShorts Strategy = "discovery_shorts"
	StrategyDeepDive        Strategy = "deep_dive"
	StrategyTopicFocused    Strategy = "topic_focused"
	StrategyBalanced        Strategy = "balanced"
)

// DetermineStrategy picks a strategy from the engagement
// classification and whether the user is currently snacking on shorts.
func DetermineStrategy(prof *profile.Profile, recent []catalog.Content) Strategy {
	if prof == nil || prof.Engagement == nil {
		return StrategyBalanced
	}

	shortsMode := inShortsMode(recent)
	classification := prof.Engagement.Classification

	switch {
	case shortsMode && classification == profile.ClassExplorer:
		return StrategyDiscoveryShorts
	case shortsMode:
		return StrategyShortsOnly
	case classification == profile.ClassDeepLearner:
		return StrategyDeepDive
	case classification == profile.ClassSpecialist:
		return StrategyTopicFocused
	default:
		return StrategyBalanced
	}
}

// inShortsMode reports whether at least two of the last three consumed
// items were shorts.
func inShortsMode(recent []catalog.Content) bool {
	if len(recent) == 0 {
		return false
	}

	n := len(recent)
	if n > 3 {
		n = 3
	}
	count := 0
	for _, content := range recent[:n] {
		if IsShort(content) {
			count++
		}
	}
	return count >= 2
}

// IsShort reports whether content is short-form: 20 to 90 seconds, or
// a quiz/exercise when no duration is known.
func IsShort(content catalog.Content) bool {
	if content.EstimatedDurationMinutes > 0 {
		seconds := content.EstimatedDurationMinutes * 60
		return seconds >= shortsMinSeconds && seconds <= shortsMaxSeconds
	}
	if content.DurationSeconds > 0 {
		return content.DurationSeconds >= shortsMinSeconds && content.DurationSeconds <= shortsMaxSeconds
	}
	return content.Type == catalog.TypeQuiz || content.Type == catalog.TypeExercise
}

// MatchesStrategy reports whether content passes the strategy filter.
// Only the shorts strategies actually restrict content.
func MatchesStrategy(content catalog.Content, strategy Strategy) bool {
	switch strategy {
	case StrategyShortsOnly, StrategyDiscoveryShorts:
		return IsShort(content)
	default:
		return true
	}
}

// StrategyBoost is the additive score bonus for content matching the
// active strategy.
func StrategyBoost(content catalog.Content, strategy Strategy) float64 {
	if !MatchesStrategy(content, strategy) {
		return 0.0
	}

	switch strategy {
	case StrategyShortsOnly:
		if IsShort(content) {
			return 0.3
		}
		return 0.0
	case StrategyDiscoveryShorts:
		if IsShort(content) {
			return 0.4
		}
		return 0.1
	case StrategyDeepDive:
		if !IsShort(content) {
			return 0.3
		}
		return 0.0
	case StrategyTopicFocused:
		return 0.2
	case StrategyBalanced:
		return 0.1
	default:
		return 0.0
	}
}

// StrategyReason explains the active strategy in recommendation
// records.
func StrategyReason(strategy Strategy) string {
	switch strategy {
	case StrategyShortsOnly:
		return "Quick content perfect for your current session"
	case StrategyDiscoveryShorts:
		return "Exploring new topics with short content"
	case StrategyDeepDive:
		return "Deep dive into topics you care about"
	case StrategyTopicFocused:
		return "Focused content matching your interests"
	default:
		return "Personalized mix for you"
	}
}
