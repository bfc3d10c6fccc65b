package modactivator

import (
	"context"
	"fmt"
	"slices"
)

// RegisterObserver implements Subject.
func (o *Orchestrator) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, r := range o.observers {
		if r.observer.ObserverID() == observer.ObserverID() {
			return fmt.Errorf("%w: %s", ErrObserverAlreadyExists, observer.ObserverID())
		}
	}

	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	o.observers = append(o.observers, observerRegistration{
		observer:     observer,
		eventTypes:   types,
		registeredAt: o.now(),
	})
	return nil
}

// UnregisterObserver implements Subject.
func (o *Orchestrator) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.observers = slices.DeleteFunc(o.observers, func(r observerRegistration) bool {
		return r.observer.ObserverID() == observer.ObserverID()
	})
	return nil
}

// GetObservers implements Subject.
func (o *Orchestrator) GetObservers() []ObserverInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]ObserverInfo, 0, len(o.observers))
	for _, r := range o.observers {
		out = append(out, r.info())
	}
	return out
}

// emit delivers an event to matching observers synchronously, in
// registration order. Observer errors and panics are logged and dropped.
func (o *Orchestrator) emit(ctx context.Context, eventType string, data any) {
	if !o.emitEvents {
		return
	}

	o.mu.RLock()
	observers := slices.Clone(o.observers)
	o.mu.RUnlock()
	if len(observers) == 0 {
		return
	}

	event := NewCloudEvent(eventType, o.source, data, o.now())
	for _, r := range observers {
		if !r.wants(eventType) {
			continue
		}
		o.notify(ctx, r.observer, event)
	}
}

func (o *Orchestrator) notify(ctx context.Context, observer Observer, event CloudEvent) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Observer panicked", "observer", observer.ObserverID(), "eventType", event.Type(), "panic", r)
		}
	}()
	if err := observer.OnEvent(ctx, event); err != nil {
		o.logger.Warn("Observer returned error", "observer", observer.ObserverID(), "eventType", event.Type(), "error", err)
	}
}
