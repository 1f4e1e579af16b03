package mq_test

import (
	"context"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pathwise/engine/internal/adapters/mq"
	"github.com/pathwise/engine/internal/domain/profile"
	"github.com/smartystreets/goconvey/convey"
)

func TestConsumer_RoundTrip(t *testing.T) {
	convey.Convey("Given a bus with a running consumer pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		bus := mq.NewBus(mq.WithBufferSize(16))
		defer bus.Close()

		var mu sync.Mutex
		received := make(map[string]int)
		done := make(chan struct{}, 8)

		consumer := mq.NewConsumer(bus, func(_ context.Context, payload []byte) {
			mu.Lock()
			received[string(payload)]++
			mu.Unlock()
			done <- struct{}{}
		}, mq.WithWorkerCount(4))

		convey.So(consumer.Start(ctx), convey.ShouldBeNil)

		convey.Convey("When payloads are published to the raw topic", func() {
			convey.So(bus.Publish(mq.RawEventsTopic, []byte(`{"a":1}`)), convey.ShouldBeNil)
			convey.So(bus.Publish(mq.RawEventsTopic, []byte(`{"b":2}`)), convey.ShouldBeNil)

			for i := 0; i < 2; i++ {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Fatal("timed out waiting for consumer")
				}
			}

			convey.Convey("Then each payload is processed exactly once", func() {
				mu.Lock()
				defer mu.Unlock()
				convey.So(received[`{"a":1}`], convey.ShouldEqual, 1)
				convey.So(received[`{"b":2}`], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the consumer is stopped", func() {
			convey.So(consumer.Stop(ctx), convey.ShouldBeNil)

			convey.Convey("Then stopping again is harmless", func() {
				convey.So(consumer.Stop(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPublisher_PublishUpdate(t *testing.T) {
	convey.Convey("Given a bus with an update subscriber", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		bus := mq.NewBus()
		defer bus.Close()

		updates, err := bus.Subscribe(ctx, mq.ProfileUpdatesTopic)
		convey.So(err, convey.ShouldBeNil)

		fixed := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		publisher := mq.NewPublisher(bus, mq.WithPublisherClock(func() time.Time { return fixed }))

		convey.Convey("When a profile update is published", func() {
			p := profile.New("user-1")
			p.TotalSessions = 2

			convey.So(publisher.PublishUpdate(ctx, p), convey.ShouldBeNil)

			select {
			case msg := <-updates:
				msg.Ack()

				var update struct {
					UserID    string           `json:"userId"`
					Profile   *profile.Profile `json:"profile"`
					Timestamp int64            `json:"timestamp"`
				}
				convey.So(json.Unmarshal(msg.Payload, &update), convey.ShouldBeNil)

				convey.Convey("Then the payload carries the snapshot and timestamp", func() {
					convey.So(update.UserID, convey.ShouldEqual, "user-1")
					convey.So(update.Profile.TotalSessions, convey.ShouldEqual, 2)
					convey.So(update.Timestamp, convey.ShouldEqual, fixed.UnixMilli())
				})
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for update")
			}
		})
	})
}
