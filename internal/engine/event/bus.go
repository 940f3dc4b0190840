package event

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for the bus.
var (
	// ErrInvalidTopic is returned for an empty or malformed topic.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrSubscriptionNotFound is returned when unsubscribing twice.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Event is one published notification.
type Event struct {
	Topic   Topic
	Payload any
	Time    time.Time
}

// Handler processes an event.
type Handler func(ctx context.Context, ev Event) error

// Priority orders handlers; lower values run first.
type Priority int

// Standard priorities.
const (
	PriorityHigh   Priority = 100
	PriorityNormal Priority = 200
	PriorityLow    Priority = 300
)

// HandlerError wraps an error returned or raised by a handler.
type HandlerError struct {
	SubscriptionID uint64
	Topic          Topic
	Err            error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d on %s: %v", e.SubscriptionID, e.Topic, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Subscription is a registered handler.
type Subscription struct {
	id       uint64
	pattern  Topic
	handler  Handler
	priority Priority
	filter   func(Event) bool
	once     bool
	active   atomic.Bool
}

// ID returns the subscription's identifier.
func (s *Subscription) ID() uint64 { return s.id }

// Pattern returns the subscribed topic pattern.
func (s *Subscription) Pattern() Topic { return s.pattern }

// IsActive reports whether the subscription still receives events.
func (s *Subscription) IsActive() bool { return s.active.Load() }

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// WithFilter delivers only events for which f returns true.
func WithFilter(f func(Event) bool) SubscriptionOption {
	return func(s *Subscription) {
		s.filter = f
	}
}

// WithOnce cancels the subscription after its first successful delivery.
func WithOnce() SubscriptionOption {
	return func(s *Subscription) {
		s.once = true
	}
}

// Stats are cumulative bus counters.
type Stats struct {
	Published uint64
	Delivered uint64
	Errors    uint64
	Panics    uint64
}

// Bus delivers events synchronously to matching subscriptions.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID atomic.Uint64
	logger *zap.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger for handler failures.
func WithLogger(logger *zap.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for topics matching pattern.
func (b *Bus) Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}
	sub := &Subscription{
		id:       b.nextID.Add(1),
		pattern:  pattern,
		handler:  handler,
		priority: PriorityNormal,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	idx, _ := slices.BinarySearchFunc(b.subs, sub, func(a, t *Subscription) int {
		if a.priority != t.priority {
			return int(a.priority - t.priority)
		}
		return int(a.id) - int(t.id)
	})
	b.subs = slices.Insert(b.subs, idx, sub)
	return sub, nil
}

// Unsubscribe removes sub.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.active.Store(false)
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.Index(b.subs, sub)
	if i < 0 {
		return ErrSubscriptionNotFound
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	return nil
}

// Len returns the number of subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers ev to every matching subscription in priority order and
// returns the handler failures joined, if any. Handlers may subscribe or
// unsubscribe while an event is being delivered; the change applies to the
// next Publish.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if !ev.Topic.IsValid() || ev.Topic.IsWildcard() {
		return ErrInvalidTopic
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.published.Add(1)

	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if !sub.IsActive() || !ev.Topic.Matches(sub.pattern) {
			continue
		}
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		if err := b.deliver(ctx, sub, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		b.delivered.Add(1)
		if sub.once {
			_ = b.Unsubscribe(sub)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error("event handler panicked",
				zap.Uint64("subscription", sub.id),
				zap.String("topic", string(ev.Topic)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = &HandlerError{SubscriptionID: sub.id, Topic: ev.Topic, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if herr := sub.handler(ctx, ev); herr != nil {
		b.errors.Add(1)
		b.logger.Warn("event handler failed",
			zap.Uint64("subscription", sub.id),
			zap.String("topic", string(ev.Topic)),
			zap.Error(herr))
		return &HandlerError{SubscriptionID: sub.id, Topic: ev.Topic, Err: herr}
	}
	return nil
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Errors:    b.errors.Load(),
		Panics:    b.panics.Load(),
	}
}
