package scoring

import (
	"strings"
	"time"

	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/internal/domain/profile"
)

// Session context weights.
const (
	timeScoreWeight    = 0.4
	energyScoreWeight  = 0.3
	patternScoreWeight = 0.3
)

// sessionScore rates how well content fits the current moment:
// time-of-day fit, energy-adjusted length fit, and the user's peak
// activity pattern.
func (s *Scorer) sessionScore(content catalog.Content, prof *profile.Profile) float64 {
	now := s.now()
	hour := now.Hour()
	day := now.Weekday().String()

	timeScore := timeOfDayScore(hour, day, prof)
	energyScore := energyScore(hour, content.EstimatedDurationMinutes)
	patternScore := patternScore(hour, day, prof)

	return timeScore*timeScoreWeight + energyScore*energyScoreWeight + patternScore*patternScoreWeight
}

// timeOfDayScore uses the profile's peak window covering this hour
// when one exists, otherwise day-part defaults.
func timeOfDayScore(hour int, day string, prof *profile.Profile) float64 {
	if prof == nil {
		return defaultTimeScore(hour)
	}
	for _, w := range prof.PeakWindows {
		if !strings.EqualFold(w.Day, day) && w.Day != "all" {
			continue
		}
		if absInt(w.Hour-hour) <= 1 {
			return w.Score
		}
	}
	return defaultTimeScore(hour)
}

// defaultTimeScore: morning 0.7, afternoon 0.9, evening 1.0, night 0.5.
func defaultTimeScore(hour int) float64 {
	switch {
	case hour >= 6 && hour < 12:
		return 0.7
	case hour >= 12 && hour < 18:
		return 0.9
	case hour >= 18 && hour < 22:
		return 1.0
	default:
		return 0.5
	}
}

// energyScore matches content length to the energy level implied by
// the hour: short content late at night, longer when fresh.
func energyScore(hour, durationMinutes int) float64 {
	if durationMinutes == 0 {
		return 0.8
	}

	optimal := energyLevel(hour) * 30
	diff := float64(durationMinutes) - optimal
	if diff < 0 {
		diff = -diff
	}

	score := 1.0 - diff/30.0
	if score < 0.2 {
		return 0.2
	}
	return score
}

func energyLevel(hour int) float64 {
	switch {
	case hour >= 6 && hour < 12:
		return 0.9
	case hour >= 12 && hour < 18:
		return 0.8
	case hour >= 18 && hour < 22:
		return 0.6
	default:
		return 0.3
	}
}

// patternScore rewards requests landing inside the user's historical
// peak windows.
func patternScore(hour int, day string, prof *profile.Profile) float64 {
	if prof == nil || prof.Engagement == nil {
		return 0.5
	}
	for _, w := range prof.PeakWindows {
		if strings.EqualFold(w.Day, day) && absInt(w.Hour-hour) <= 1 {
			return 1.0
		}
	}
	return 0.6
}

// SessionReason describes the current day part for recommendation
// explanations.
func SessionReason(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour >= 6 && hour < 12:
		return "Good for morning learning"
	case hour >= 12 && hour < 18:
		return "Great for afternoon sessions"
	case hour >= 18 && hour < 22:
		return "Perfect for evening learning"
	default:
		return "Quick content for late night"
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
