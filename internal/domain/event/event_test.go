package event_test

import (
	"errors"
	"testing"

	"github.com/pathwise/engine/internal/domain/event"
	"github.com/smartystreets/goconvey/convey"
)

func TestEvent_Decode(t *testing.T) {
	convey.Convey("Given raw event payloads", t, func() {
		convey.Convey("When decoding a valid journey envelope", func() {
			payload := []byte(`{
				"topic": "content_journey",
				"userId": "user-1",
				"journeyId": "j-1",
				"sessionId": "s-1",
				"contentId": "c-1",
				"contentType": "video",
				"action": "completed",
				"sequencePosition": 2,
				"timeInContentSeconds": 90,
				"topicTags": ["math", "algebra"],
				"previousContentId": "c-0",
				"timestamp": 1700000000000
			}`)

			env, err := event.Decode(payload)

			convey.Convey("Then it should decode every field", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(env.Topic, convey.ShouldEqual, event.TopicContentJourney)
				convey.So(env.UserID, convey.ShouldEqual, "user-1")

				j := env.Journey()
				convey.So(j.ContentID, convey.ShouldEqual, "c-1")
				convey.So(j.Action, convey.ShouldEqual, "completed")
				convey.So(j.TimeInContentSeconds, convey.ShouldEqual, 90)
				convey.So(j.TopicTags, convey.ShouldResemble, []string{"math", "algebra"})
				convey.So(j.PreviousContentID, convey.ShouldEqual, "c-0")
				convey.So(j.Timestamp.IsZero(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When time in content is absent", func() {
			payload := []byte(`{"topic":"content_journey","userId":"user-1","journeyId":"j-1","contentId":"c-1","topicTags":["math"]}`)

			env, err := event.Decode(payload)

			convey.Convey("Then the journey view reads zero seconds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(env.Journey().TimeInContentSeconds, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When decoding a session end envelope", func() {
			payload := []byte(`{"topic":"session_lifecycle","userId":"user-1","eventType":"session_end","sessionId":"s-1","durationSeconds":1800,"contentCount":12}`)

			env, err := event.Decode(payload)

			convey.Convey("Then the session view carries the metrics", func() {
				convey.So(err, convey.ShouldBeNil)
				s := env.Session()
				convey.So(s.EventType, convey.ShouldEqual, event.EventTypeSessionEnd)
				convey.So(s.DurationSeconds, convey.ShouldEqual, 1800)
				convey.So(s.ContentCount, convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When the payload is not JSON", func() {
			_, err := event.Decode([]byte("not json"))

			convey.Convey("Then it should return a malformed payload error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, event.ErrMalformedPayload), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When required fields are missing", func() {
			_, err := event.Decode([]byte(`{"eventType":"session_end"}`))

			convey.Convey("Then it should return an invalid envelope error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, event.ErrInvalidEnvelope), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the payload carries unknown fields", func() {
			payload := []byte(`{"topic":"content_journey","userId":"user-1","journeyId":"j-1","somethingNew":true}`)

			_, err := event.Decode(payload)

			convey.Convey("Then they are tolerated", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestEvent_DedupeKey(t *testing.T) {
	convey.Convey("Given envelopes of each topic", t, func() {
		convey.Convey("Then journey envelopes key on journey ID and sequence", func() {
			env := &event.Envelope{Topic: event.TopicContentJourney, JourneyID: "j-1", SequencePosition: 3}
			convey.So(env.DedupeKey(), convey.ShouldEqual, "j-1:3")
		})

		convey.Convey("Then session envelopes key on session ID and event type", func() {
			env := &event.Envelope{Topic: event.TopicSessionLifecycle, SessionID: "s-1", EventType: "session_end"}
			convey.So(env.DedupeKey(), convey.ShouldEqual, "s-1:session_end")
		})

		convey.Convey("Then envelopes without identity produce no key", func() {
			convey.So((&event.Envelope{Topic: event.TopicContentJourney}).DedupeKey(), convey.ShouldEqual, "")
			convey.So((&event.Envelope{Topic: "other"}).DedupeKey(), convey.ShouldEqual, "")
		})
	})
}
