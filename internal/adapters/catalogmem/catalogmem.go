// Package catalogmem provides in-memory implementations of the content
// collaborators: the published-content catalog, per-user consumption
// history, and the recommendation sink. They back single-node
// deployments and tests; real services can replace any of them behind
// the catalog interfaces.
package catalogmem

import (
	"context"
	"sync"

	"github.com/pathwise/engine/internal/domain/catalog"
)

// Catalog is an in-memory catalog.Catalog.
type Catalog struct {
	mu      sync.RWMutex
	content []catalog.Content
}

// NewCatalog creates a catalog seeded with content.
func NewCatalog(content ...catalog.Content) *Catalog {
	c := &Catalog{}
	c.Add(content...)
	return c
}

// Add appends content to the catalog.
func (c *Catalog) Add(content ...catalog.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = append(c.content, content...)
}

// Published implements catalog.Catalog.
func (c *Catalog) Published(ctx context.Context) ([]catalog.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]catalog.Content, len(c.content))
	copy(out, c.content)
	return out, nil
}

// History is an in-memory catalog.History.
type History struct {
	mu     sync.RWMutex
	seen   map[string][]string
	recent map[string][]catalog.Content
	prefs  map[string]catalog.Preferences
	skills map[string]map[string]catalog.SkillLevel
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{
		seen:   make(map[string][]string),
		recent: make(map[string][]catalog.Content),
		prefs:  make(map[string]catalog.Preferences),
		skills: make(map[string]map[string]catalog.SkillLevel),
	}
}

// RecordSeen marks content as consumed by the user, most recent first.
func (h *History) RecordSeen(userID string, content catalog.Content) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[userID] = append(h.seen[userID], content.ID)
	h.recent[userID] = append([]catalog.Content{content}, h.recent[userID]...)
}

// SetPreferences stores the user's preferences.
func (h *History) SetPreferences(userID string, prefs catalog.Preferences) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prefs[userID] = prefs
}

// SetSkill stores one skill level for the user.
func (h *History) SetSkill(userID string, skill catalog.SkillLevel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.skills[userID] == nil {
		h.skills[userID] = make(map[string]catalog.SkillLevel)
	}
	h.skills[userID][skill.Topic] = skill
}

// SeenContentIDs implements catalog.History.
func (h *History) SeenContentIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.seen[userID]))
	copy(out, h.seen[userID])
	return out, nil
}

// RecentContent implements catalog.History, most recent first.
func (h *History) RecentContent(ctx context.Context, userID string, limit int) ([]catalog.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	recent := h.recent[userID]
	if limit > 0 && limit < len(recent) {
		recent = recent[:limit]
	}
	out := make([]catalog.Content, len(recent))
	copy(out, recent)
	return out, nil
}

// Preferences implements catalog.History. Unknown users get defaults.
func (h *History) Preferences(ctx context.Context, userID string) (catalog.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Preferences{}, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	prefs, ok := h.prefs[userID]
	if !ok {
		return catalog.DefaultPreferences(), nil
	}
	return prefs, nil
}

// SkillLevels implements catalog.History.
func (h *History) SkillLevels(ctx context.Context, userID string) ([]catalog.SkillLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]catalog.SkillLevel, 0, len(h.skills[userID]))
	for _, skill := range h.skills[userID] {
		out = append(out, skill)
	}
	return out, nil
}

// Recommendations is an in-memory catalog.Recommendations sink.
type Recommendations struct {
	mu       sync.RWMutex
	saved    map[string][]catalog.Recommendation
	feedback map[string][]string
}

// NewRecommendations creates an empty sink.
func NewRecommendations() *Recommendations {
	return &Recommendations{
		saved:    make(map[string][]catalog.Recommendation),
		feedback: make(map[string][]string),
	}
}

// SaveAll implements catalog.Recommendations.
func (r *Recommendations) SaveAll(ctx context.Context, recs []catalog.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range recs {
		r.saved[rec.UserID] = append(r.saved[rec.UserID], rec)
	}
	return nil
}

// RecordFeedback implements catalog.Recommendations.
func (r *Recommendations) RecordFeedback(ctx context.Context, userID, contentID string, kind catalog.FeedbackType) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.feedback[userID] = append(r.feedback[userID], contentID+":"+string(kind))
	return nil
}

// Saved returns the recommendations stored for a user.
func (r *Recommendations) Saved(userID string) []catalog.Recommendation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Recommendation, len(r.saved[userID]))
	copy(out, r.saved[userID])
	return out
}

// Feedback returns recorded feedback entries for a user.
func (r *Recommendations) Feedback(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.feedback[userID]))
	copy(out, r.feedback[userID])
	return out
}
