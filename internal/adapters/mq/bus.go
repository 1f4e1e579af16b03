// Package mq moves raw behavioral events and profile updates over a
// watermill pub/sub. The in-process gochannel transport is the default;
// the message.Publisher/Subscriber seam keeps a real broker swappable.
package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/pathwise/engine/pkg/logger"
)

// Topics carried by the bus.
const (
	// RawEventsTopic receives behavioral event envelopes for profiling.
	RawEventsTopic = "raw-behavioral-events"
	// ProfileUpdatesTopic carries profile snapshots after each update.
	ProfileUpdatesTopic = "profile-updates"
)

const defaultBufferSize = 100000

// Bus wraps an in-process pub/sub shared by the consumer and publisher
// sides.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// BusOption applies a configuration option to the Bus.
type BusOption func(*busConfig)

type busConfig struct {
	bufferSize int64
}

// WithBufferSize sets the per-topic output buffer.
func WithBufferSize(size int64) BusOption {
	return func(c *busConfig) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// NewBus creates the in-process bus.
func NewBus(opts ...BusOption) *Bus {
	cfg := busConfig{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: cfg.bufferSize},
			newLoggerAdapter(logger.Get().Named("mq")),
		),
	}
}

// Publish sends a payload to a topic with a fresh message UUID.
func (b *Bus) Publish(topic string, payload []byte) error {
	return b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe returns the message stream for a topic. The channel closes
// when ctx is done or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the transport down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
