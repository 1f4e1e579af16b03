package mq

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/pathwise/engine/pkg/logger"
	"github.com/pathwise/engine/pkg/metrics"
)

// Default consumer configuration constants.
const (
	defaultWorkerMultiplier = 4
	consumerShutdownTimeout = 30 * time.Second
)

// ProcessFunc handles one raw event payload. Implementations own all
// error handling; the consumer Acks regardless so redeliveries never
// loop on poison payloads.
type ProcessFunc func(ctx context.Context, payload []byte)

// Consumer drains the raw-events topic with a pool of workers sharing
// one subscription.
type Consumer struct {
	bus     *Bus
	process ProcessFunc
	workers int
	topic   string

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once

	logger logger.Logger
}

// ConsumerOption applies a configuration option to the Consumer.
type ConsumerOption func(*Consumer)

// WithWorkerCount sets the number of pool workers.
func WithWorkerCount(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTopic overrides the subscribed topic.
func WithTopic(topic string) ConsumerOption {
	return func(c *Consumer) {
		if topic != "" {
			c.topic = topic
		}
	}
}

// NewConsumer creates a consumer pool over the bus.
func NewConsumer(bus *Bus, process ProcessFunc, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		bus:      bus,
		process:  process,
		workers:  runtime.NumCPU() * defaultWorkerMultiplier,
		topic:    RawEventsTopic,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("consumer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes and launches the worker pool. It returns once the
// pool is running.
func (c *Consumer) Start(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	metrics.UpdateConsumerWorkers(c.workers)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.run(ctx, messages)
		}()
	}

	go func() {
		wg.Wait()
		metrics.UpdateConsumerWorkers(0)
		close(c.done)
	}()

	c.logger.Info(ctx, "consumer started",
		logger.String("topic", c.topic),
		logger.Int("workers", c.workers),
	)
	return nil
}

// run drains the shared subscription until shutdown.
func (c *Consumer) run(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			start := time.Now()
			c.process(ctx, msg.Payload)
			metrics.RecordEventLatency(float64(time.Since(start).Milliseconds()))

			msg.Ack()
		}
	}
}

// Stop signals the pool and waits for in-flight work to finish.
func (c *Consumer) Stop(ctx context.Context) error {
	c.once.Do(func() { close(c.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, consumerShutdownTimeout)
	defer cancel()

	select {
	case <-c.done:
		return nil
	case <-shutdownCtx.Done():
		c.logger.Warn(ctx, "consumer shutdown timed out")
		return fmt.Errorf("consumer shutdown timed out: %w", shutdownCtx.Err())
	}
}
