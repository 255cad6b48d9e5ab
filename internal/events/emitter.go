package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// AggregateTypeTimeline is the aggregate type for timeline events.
	AggregateTypeTimeline = "timeline"

	// EventTypeTimelineGenerated is emitted after a timeline was returned.
	EventTypeTimelineGenerated = "timeline.generated"

	// EventTypeTimelineFailed is emitted when a timeline request failed.
	EventTypeTimelineFailed = "timeline.failed"
)

// Event is a lifecycle event as published on the wire.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// GeneratedPayload describes a completed timeline request.
type GeneratedPayload struct {
	Query      string `json:"query"`
	Candidates int    `json:"candidates"`
	Bins       int    `json:"bins"`
	Shortlist  int    `json:"shortlist"`
	Entries    int    `json:"entries"`
	Strategy   string `json:"strategy"`
	DurationMS int64  `json:"duration_ms"`
}

// FailedPayload describes a failed timeline request.
type FailedPayload struct {
	Query      string `json:"query"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// EmitterConfig configures the Emitter with service context.
type EmitterConfig struct {
	// ServiceName identifies the source service.
	ServiceName string
	// Now overrides the event clock in tests.
	Now func() time.Time
}

// EmitParams contains the parameters for emitting an event.
type EmitParams struct {
	// RequestID is the timeline request ID (aggregate ID).
	RequestID string
	// EventType is the type of event (e.g., "timeline.generated").
	EventType string
	// Payload is the event payload that will be JSON-serialized.
	Payload any
	// CorrelationID for request tracing (optional).
	CorrelationID string
}

// Emitter creates events enriched with service context.
type Emitter struct {
	config EmitterConfig
}

// NewEmitter creates a new Emitter with the given service configuration.
func NewEmitter(config EmitterConfig) *Emitter {
	if config.ServiceName == "" {
		config.ServiceName = "research-timeline-service"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Emitter{config: config}
}

// Emit builds an Event from the given parameters.
func (e *Emitter) Emit(params EmitParams) (Event, error) {
	if params.RequestID == "" {
		return Event{}, fmt.Errorf("request_id is required")
	}
	if params.EventType == "" {
		return Event{}, fmt.Errorf("event_type is required")
	}

	payloadBytes, err := json.Marshal(params.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal payload: %w", err)
	}

	return Event{
		EventID:       uuid.New().String(),
		EventType:     params.EventType,
		AggregateType: AggregateTypeTimeline,
		AggregateID:   params.RequestID,
		Source:        e.config.ServiceName,
		CorrelationID: params.CorrelationID,
		OccurredAt:    e.config.Now().UTC(),
		Payload:       payloadBytes,
	}, nil
}

// EmitTimelineGenerated is a convenience method for timeline.generated events.
func (e *Emitter) EmitTimelineGenerated(requestID, correlationID string, payload GeneratedPayload) (Event, error) {
	return e.Emit(EmitParams{
		RequestID:     requestID,
		EventType:     EventTypeTimelineGenerated,
		Payload:       payload,
		CorrelationID: correlationID,
	})
}

// EmitTimelineFailed is a convenience method for timeline.failed events.
func (e *Emitter) EmitTimelineFailed(requestID, correlationID string, payload FailedPayload) (Event, error) {
	return e.Emit(EmitParams{
		RequestID:     requestID,
		EventType:     EventTypeTimelineFailed,
		Payload:       payload,
		CorrelationID: correlationID,
	})
}
