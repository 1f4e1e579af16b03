// Package catalog defines the content-side types the engine scores
// against and the collaborator interfaces that supply them. The
// catalog, consumption history, and recommendation persistence all
// live outside this service; the engine only depends on these
// contracts.
package catalog

import (
	"context"
	"time"
)

// ContentType discriminates catalog items.
type ContentType string

// Known content types.
const (
	TypeVideo    ContentType = "video"
	TypeArticle  ContentType = "article"
	TypeQuiz     ContentType = "quiz"
	TypeExercise ContentType = "exercise"
	TypeCourse   ContentType = "course"
)

// Content is one recommendable catalog item.
type Content struct {
	ID                       string      `json:"id"`
	Type                     ContentType `json:"type"`
	Title                    string      `json:"title"`
	Topics                   []string    `json:"topics"`
	DifficultyLevel          int         `json:"difficultyLevel"`
	EstimatedDurationMinutes int         `json:"estimatedDurationMinutes"`
	DurationSeconds          int         `json:"durationSeconds"`
	CreatedAt                time.Time   `json:"createdAt"`
}

// Preferences are a user's explicit content preferences.
type Preferences struct {
	TopicPreferences       map[string]float64 `json:"topicPreferences"`
	ContentTypePreferences map[string]float64 `json:"contentTypePreferences"`
	DifficultyPreference   int                `json:"difficultyPreference"`
	DailyTimeTargetMinutes int                `json:"dailyTimeTargetMinutes"`
}

// DefaultPreferences returns the neutral preferences applied when the
// history collaborator has nothing for a user.
func DefaultPreferences() Preferences {
	return Preferences{
		DifficultyPreference:   3,
		DailyTimeTargetMinutes: 30,
	}
}

// SkillLevel is a user's assessed confidence on one topic.
type SkillLevel struct {
	Topic           string  `json:"topic"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// FeedbackType labels explicit reactions to a recommendation.
type FeedbackType string

// Known feedback types.
const (
	FeedbackClicked    FeedbackType = "clicked"
	FeedbackDismissed  FeedbackType = "dismissed"
	FeedbackBookmarked FeedbackType = "bookmarked"
)

// Recommendation is one emitted recommendation record.
type Recommendation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ContentID string    `json:"contentId"`
	Score     float64   `json:"score"`
	Algorithm string    `json:"algorithm"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Catalog supplies the recommendable content set.
type Catalog interface {
	// Published returns every currently recommendable item.
	Published(ctx context.Context) ([]Content, error)
}

// History supplies a user's consumption side: what they have seen,
// what they consumed recently, and their stated preferences and
// skills. Implementations may return empty results; the engine
// substitutes defaults.
type History interface {
	SeenContentIDs(ctx context.Context, userID string) ([]string, error)
	RecentContent(ctx context.Context, userID string, limit int) ([]Content, error)
	Preferences(ctx context.Context, userID string) (Preferences, error)
	SkillLevels(ctx context.Context, userID string) ([]SkillLevel, error)
}

// Recommendations persists emitted recommendation records and
// feedback. Failures are logged and never block serving.
type Recommendations interface {
	SaveAll(ctx context.Context, recs []Recommendation) error
	RecordFeedback(ctx context.Context, userID, contentID string, feedback FeedbackType) error
}
