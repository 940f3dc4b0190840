package engine

import (
	"context"

	"github.com/dshills/treestorm/internal/engine/event"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/operation"
)

// Topics published on the engine's event bus.
const (
	TopicDocumentChanged  event.Topic = "document.changed"
	TopicSelectionChanged event.Topic = "selection.changed"
	TopicHistoryUndo      event.Topic = "history.undo"
	TopicHistoryRedo      event.Topic = "history.redo"
	TopicSnapshotCreated  event.Topic = "snapshot.created"
)

// DocumentChanged is the payload of TopicDocumentChanged.
type DocumentChanged struct {
	Batch      string
	Revision   RevisionID
	Operations []operation.Operation
}

// SelectionChanged is the payload of TopicSelectionChanged.
type SelectionChanged struct {
	Selection *location.Range
}

// HistoryChanged is the payload of the history topics.
type HistoryChanged struct {
	UndoCount int
	RedoCount int
}

// SnapshotCreated is the payload of TopicSnapshotCreated.
type SnapshotCreated struct {
	ID   SnapshotID
	Name string
}

// Events returns the engine's event bus.
func (e *Engine) Events() *event.Bus {
	return e.bus
}

// Subscribe registers handler on the engine's bus. Handlers run after the
// engine lock is released and may call back into the engine.
func (e *Engine) Subscribe(pattern event.Topic, handler event.Handler, opts ...event.SubscriptionOption) (*event.Subscription, error) {
	return e.bus.Subscribe(pattern, handler, opts...)
}

// Unsubscribe removes a subscription made with Subscribe.
func (e *Engine) Unsubscribe(sub *event.Subscription) error {
	return e.bus.Unsubscribe(sub)
}

// queue stages an event. Callers hold e.mu.
func (e *Engine) queue(topic event.Topic, payload any) {
	e.outbox = append(e.outbox, event.Event{Topic: topic, Payload: payload})
}

// takeEvents empties the outbox. Callers hold e.mu.
func (e *Engine) takeEvents() []event.Event {
	out := e.outbox
	e.outbox = nil
	return out
}

// publish delivers staged events. Callers must not hold e.mu.
func (e *Engine) publish(events []event.Event) {
	for _, ev := range events {
		// Handler failures are logged by the bus.
		_ = e.bus.Publish(context.Background(), ev)
	}
}
