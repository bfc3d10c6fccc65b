package modactivator

import (
	"context"
	"slices"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is notified of orchestrator events. Events use the CloudEvents
// specification.
type Observer interface {
	// OnEvent is called synchronously, in registration order, after the
	// transition the event describes. A returned error is logged and does
	// not affect the lifecycle operation.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Subject is implemented by the orchestrator to accept observers.
type Subject interface {
	// RegisterObserver adds an observer. If eventTypes is empty, the
	// observer receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// GetObservers returns information about currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Event types emitted by the orchestrator, in reverse domain notation.
const (
	EventTypeModuleRegistered = "com.modactivator.module.registered"
	EventTypeModuleStarting   = "com.modactivator.module.starting"
	EventTypeModuleStarted    = "com.modactivator.module.started"
	EventTypeModuleStopping   = "com.modactivator.module.stopping"
	EventTypeModuleStopped    = "com.modactivator.module.stopped"
	EventTypeModuleFailed     = "com.modactivator.module.failed"
	EventTypeModuleUnloaded   = "com.modactivator.module.unloaded"

	EventTypeStartAllCompleted = "com.modactivator.startall.completed"
	EventTypeStopCompleted     = "com.modactivator.stop.completed"
	EventTypeShutdownCompleted = "com.modactivator.shutdown.completed"
)

// FunctionalObserver provides a simple way to create observers using functions.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates a new observer that uses the provided function
// to handle events.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

func (r observerRegistration) wants(eventType string) bool {
	return len(r.eventTypes) == 0 || r.eventTypes[eventType]
}

func (r observerRegistration) info() ObserverInfo {
	types := make([]string, 0, len(r.eventTypes))
	for t := range r.eventTypes {
		types = append(types, t)
	}
	slices.Sort(types)
	return ObserverInfo{ID: r.observer.ObserverID(), EventTypes: types, RegisteredAt: r.registeredAt}
}
