// Package demo generates synthetic behavioral traffic so a single
// binary with in-memory collaborators has something to profile and
// recommend. Production deployments leave it disabled.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pathwise/engine/internal/adapters/mq"
	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/pkg/logger"
)

const (
	journeyLength   = 5
	sessionFraction = 6
)

var topics = []string{"math", "algebra", "physics", "history", "biology", "music"}

var actions = []string{"started", "completed", "completed", "revisited", "abandoned"}

// Catalog returns a sample content set spanning every type.
func Catalog() []catalog.Content {
	now := time.Now()
	out := make([]catalog.Content, 0, len(topics)*4)
	for i, topic := range topics {
		out = append(out,
			catalog.Content{
				ID:                       fmt.Sprintf("video-%s", topic),
				Type:                     catalog.TypeVideo,
				Title:                    fmt.Sprintf("Intro to %s", topic),
				Topics:                   []string{topic},
				DifficultyLevel:          1 + i%5,
				EstimatedDurationMinutes: 12,
				CreatedAt:                now.AddDate(0, 0, -i*10),
			},
			catalog.Content{
				ID:              fmt.Sprintf("short-%s", topic),
				Type:            catalog.TypeVideo,
				Title:           fmt.Sprintf("%s in a minute", topic),
				Topics:          []string{topic},
				DifficultyLevel: 1 + i%5,
				DurationSeconds: 60,
				CreatedAt:       now.AddDate(0, 0, -i*3),
			},
			catalog.Content{
				ID:                       fmt.Sprintf("article-%s", topic),
				Type:                     catalog.TypeArticle,
				Title:                    fmt.Sprintf("Understanding %s", topic),
				Topics:                   []string{topic},
				DifficultyLevel:          2 + i%4,
				EstimatedDurationMinutes: 8,
				CreatedAt:                now.AddDate(0, 0, -i*20),
			},
			catalog.Content{
				ID:              fmt.Sprintf("quiz-%s", topic),
				Type:            catalog.TypeQuiz,
				Title:           fmt.Sprintf("%s check", topic),
				Topics:          []string{topic},
				DifficultyLevel: 1 + i%5,
				CreatedAt:       now.AddDate(0, 0, -i*5),
			},
		)
	}
	return out
}

// Generator emits synthetic behavioral envelopes.
type Generator struct {
	rng     *rand.Rand
	users   int
	content []catalog.Content
}

// NewGenerator creates a generator over the demo catalog.
func NewGenerator(users int, seed int64) *Generator {
	if users < 1 {
		users = 1
	}
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		users:   users,
		content: Catalog(),
	}
}

// Payloads produces count raw envelopes: content journeys in chains of
// five, with a session_end roughly every sixth event.
func (g *Generator) Payloads(count int) [][]byte {
	out := make([][]byte, 0, count)
	journeys := make(map[string]journeyState, g.users)

	for i := 0; i < count; i++ {
		userID := fmt.Sprintf("demo-user-%d", g.rng.Intn(g.users))

		if i%sessionFraction == sessionFraction-1 {
			out = append(out, g.sessionPayload(userID))
			continue
		}
		out = append(out, g.journeyPayload(userID, journeys))
	}
	return out
}

type journeyState struct {
	id   string
	seq  int
	prev string
}

func (g *Generator) journeyPayload(userID string, journeys map[string]journeyState) []byte {
	state, ok := journeys[userID]
	if !ok || state.seq >= journeyLength {
		state = journeyState{id: uuid.NewString()}
	}

	content := g.content[g.rng.Intn(len(g.content))]
	state.seq++

	payload, _ := json.Marshal(map[string]any{
		"topic":                "content_journey",
		"userId":               userID,
		"journeyId":            state.id,
		"sequencePosition":     state.seq,
		"contentId":            content.ID,
		"contentType":          string(content.Type),
		"action":               actions[g.rng.Intn(len(actions))],
		"timeInContentSeconds": 30 + g.rng.Intn(600),
		"topicTags":            content.Topics,
		"previousContentId":    state.prev,
		"timestamp":            time.Now().UnixMilli(),
	})

	state.prev = content.ID
	journeys[userID] = state
	return payload
}

func (g *Generator) sessionPayload(userID string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"topic":           "session_lifecycle",
		"userId":          userID,
		"sessionId":       uuid.NewString(),
		"eventType":       "session_end",
		"durationSeconds": 120 + g.rng.Intn(3000),
		"contentCount":    1 + g.rng.Intn(15),
	})
	return payload
}

// Run publishes count synthetic events to the raw topic.
func Run(ctx context.Context, bus *mq.Bus, users, count int) {
	log := logger.Get().Named("demo")
	gen := NewGenerator(users, time.Now().UnixNano())

	published := 0
	for _, payload := range gen.Payloads(count) {
		if ctx.Err() != nil {
			return
		}
		if err := bus.Publish(mq.RawEventsTopic, payload); err != nil {
			log.Warn(ctx, "demo publish failed", logger.Error(err))
			return
		}
		published++
	}
	log.Info(ctx, "demo traffic published", logger.Int("events", published))
}
