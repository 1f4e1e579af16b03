// Package event defines the raw behavioral event envelope and its
// typed views. Envelopes arrive over the bus as JSON; malformed ones
// are rejected here so the consumer can drop them without retry.
package event

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Envelope topics routed by the profiler.
const (
	TopicContentJourney   = "content_journey"
	TopicSessionLifecycle = "session_lifecycle"
)

// EventTypeSessionEnd is the only session lifecycle event that mutates
// a profile; other lifecycle events are ignored.
const EventTypeSessionEnd = "session_end"

var validate = validator.New()

// Envelope is the wire form of a behavioral event. Topic selects which
// of the embedded field groups is meaningful; unknown discriminator
// values inside the payload fall back to defaults downstream rather
// than failing validation here.
type Envelope struct {
	Topic     string `json:"topic" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	EventType string `json:"eventType"`

	// Journey fields (topic content_journey).
	JourneyID            string   `json:"journeyId"`
	SessionID            string   `json:"sessionId"`
	ContentID            string   `json:"contentId"`
	ContentType          string   `json:"contentType"`
	Action               string   `json:"action"`
	SequencePosition     int      `json:"sequencePosition"`
	TimeInContentSeconds *int     `json:"timeInContentSeconds"`
	TopicTags            []string `json:"topicTags"`
	DifficultyLevel      string   `json:"difficultyLevel"`
	PreviousContentID    string   `json:"previousContentId"`
	Timestamp            int64    `json:"timestamp"`

	// Session fields (topic session_lifecycle).
	DurationSeconds int `json:"durationSeconds"`
	ContentCount    int `json:"contentCount"`
}

// Journey is the normalized journey view of an envelope. A missing
// time-in-content reads as zero.
type Journey struct {
	UserID               string
	JourneyID            string
	SessionID            string
	ContentID            string
	ContentType          string
	Action               string
	SequencePosition     int
	TimeInContentSeconds int
	TopicTags            []string
	DifficultyLevel      string
	PreviousContentID    string
	Timestamp            time.Time
}

// Session is the normalized session view of an envelope.
type Session struct {
	UserID          string
	SessionID       string
	EventType       string
	DurationSeconds int
	ContentCount    int
}

// Decode parses and validates a raw payload. The error distinguishes
// unparseable JSON from a structurally valid envelope missing its
// required identity fields; both are drop-and-ack conditions.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if err := validate.Struct(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	return &env, nil
}

// Journey returns the journey view.
func (e *Envelope) Journey() Journey {
	j := Journey{
		UserID:            e.UserID,
		JourneyID:         e.JourneyID,
		SessionID:         e.SessionID,
		ContentID:         e.ContentID,
		ContentType:       e.ContentType,
		Action:            e.Action,
		SequencePosition:  e.SequencePosition,
		TopicTags:         e.TopicTags,
		DifficultyLevel:   e.DifficultyLevel,
		PreviousContentID: e.PreviousContentID,
	}
	if e.TimeInContentSeconds != nil {
		j.TimeInContentSeconds = *e.TimeInContentSeconds
	}
	if e.Timestamp > 0 {
		j.Timestamp = time.UnixMilli(e.Timestamp)
	}
	return j
}

// Session returns the session view.
func (e *Envelope) Session() Session {
	return Session{
		UserID:          e.UserID,
		SessionID:       e.SessionID,
		EventType:       e.EventType,
		DurationSeconds: e.DurationSeconds,
		ContentCount:    e.ContentCount,
	}
}

// DedupeKey derives an idempotency key for the envelope. Journey
// events key on journey ID and sequence position; session events on
// session ID and event type. Envelopes with no usable identity return
// an empty key and skip deduplication.
func (e *Envelope) DedupeKey() string {
	switch e.Topic {
	case TopicContentJourney:
		if e.JourneyID == "" {
			return ""
		}
		return e.JourneyID + ":" + strconv.Itoa(e.SequencePosition)
	case TopicSessionLifecycle:
		if e.SessionID == "" {
			return ""
		}
		return e.SessionID + ":" + e.EventType
	default:
		return ""
	}
}
