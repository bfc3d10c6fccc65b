package modactivator

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// ModuleEventData is the payload of module lifecycle events.
type ModuleEventData struct {
	Operation string `json:"operation,omitempty"`
	ResultID  string `json:"result_id,omitempty"`
	Module    string `json:"module"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Hook      Hook   `json:"hook,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OperationEventData is the payload of operation completion events.
type OperationEventData struct {
	Operation    string   `json:"operation"`
	ResultID     string   `json:"result_id"`
	Transitioned []string `json:"transitioned"`
	Skipped      []string `json:"skipped,omitempty"`
	Failed       []string `json:"failed,omitempty"`
}

// NewCloudEvent creates a new CloudEvent with the specified parameters.
func NewCloudEvent(eventType, source string, data any, at time.Time) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(at)
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// generateEventID generates a time-ordered identifier using UUIDv7.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}
