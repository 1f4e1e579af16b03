package mq

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pathwise/engine/internal/domain/profile"
	"github.com/pathwise/engine/pkg/logger"
	"github.com/pathwise/engine/pkg/metrics"
)

// profileUpdate is the egress payload published after each profile
// change.
type profileUpdate struct {
	UserID    string           `json:"userId"`
	Profile   *profile.Profile `json:"profile"`
	Timestamp int64            `json:"timestamp"`
}

// Publisher emits profile snapshots to the updates topic.
type Publisher struct {
	bus    *Bus
	topic  string
	now    func() time.Time
	logger logger.Logger
}

// PublisherOption applies a configuration option to the Publisher.
type PublisherOption func(*Publisher)

// WithPublishTopic overrides the egress topic.
func WithPublishTopic(topic string) PublisherOption {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// WithPublisherClock overrides the timestamp source.
func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPublisher creates a profile-update publisher over the bus.
func NewPublisher(bus *Bus, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		bus:    bus,
		topic:  ProfileUpdatesTopic,
		now:    time.Now,
		logger: logger.Get().Named("publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishUpdate sends the profile snapshot downstream.
func (p *Publisher) PublishUpdate(ctx context.Context, prof *profile.Profile) error {
	data, err := json.Marshal(profileUpdate{
		UserID:    prof.UserID,
		Profile:   prof,
		Timestamp: p.now().UnixMilli(),
	})
	if err != nil {
		metrics.RecordPublishError()
		return fmt.Errorf("encode profile update for %s: %w", prof.UserID, err)
	}

	if err := p.bus.Publish(p.topic, data); err != nil {
		metrics.RecordPublishError()
		return fmt.Errorf("publish profile update for %s: %w", prof.UserID, err)
	}

	metrics.RecordProfilePublished()
	return nil
}
