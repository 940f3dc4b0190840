package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"document.changed", "document.changed", true},
		{"document.changed", "document.*", true},
		{"document.changed", "*", false},
		{"document.changed", "**", true},
		{"history.undo", "history.**", true},
		{"history", "history.**", true},
		{"history.undo", "document.*", false},
		{"a.b.c", "a.*.c", true},
		{"a.b.c", "a.**.c", true},
		{"a.c", "a.**.c", true},
		{"a.b", "a.b.c", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.topic.Matches(tt.pattern), "%s ~ %s", tt.topic, tt.pattern)
	}
}

func TestTopicHelpers(t *testing.T) {
	assert.True(t, Topic("a.*").IsWildcard())
	assert.False(t, Topic("a.b").IsWildcard())
	assert.False(t, Topic("").IsValid())
	assert.False(t, Topic("a..b").IsValid())
	assert.False(t, Topic(".a").IsValid())
	assert.True(t, Topic("a.b").IsValid())
}

func TestSubscribeValidation(t *testing.T) {
	b := NewBus()
	_, err := b.Subscribe("a", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
	_, err = b.Subscribe("", func(context.Context, Event) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTopic)
	assert.ErrorIs(t, b.Publish(context.Background(), Event{Topic: "a.*"}), ErrInvalidTopic)
}

func TestPublishOrderAndMatching(t *testing.T) {
	b := NewBus()
	var got []string
	record := func(name string) Handler {
		return func(_ context.Context, ev Event) error {
			got = append(got, name+":"+string(ev.Topic))
			return nil
		}
	}
	_, err := b.Subscribe("document.*", record("normal"))
	require.NoError(t, err)
	_, err = b.Subscribe("**", record("low"), WithPriority(PriorityLow))
	require.NoError(t, err)
	_, err = b.Subscribe("document.changed", record("high"), WithPriority(PriorityHigh))
	require.NoError(t, err)
	_, err = b.Subscribe("history.*", record("history"))
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), Event{Topic: "document.changed", Payload: 1}))
	assert.Equal(t, []string{"high:document.changed", "normal:document.changed", "low:document.changed"}, got)
	assert.Equal(t, uint64(3), b.Stats().Delivered)
}

func TestPublishStampsTime(t *testing.T) {
	b := NewBus()
	var ev Event
	_, err := b.Subscribe("a", func(_ context.Context, e Event) error { ev = e; return nil })
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), Event{Topic: "a"}))
	assert.False(t, ev.Time.IsZero())
}

func TestUnsubscribeAndOnce(t *testing.T) {
	b := NewBus()
	calls := 0
	handler := func(context.Context, Event) error { calls++; return nil }
	sub, err := b.Subscribe("a", handler)
	require.NoError(t, err)
	_, err = b.Subscribe("a", handler, WithOnce())
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())

	require.NoError(t, b.Publish(context.Background(), Event{Topic: "a"}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, b.Len())

	require.NoError(t, b.Unsubscribe(sub))
	assert.False(t, sub.IsActive())
	assert.ErrorIs(t, b.Unsubscribe(sub), ErrSubscriptionNotFound)

	require.NoError(t, b.Publish(context.Background(), Event{Topic: "a"}))
	assert.Equal(t, 2, calls)
}

func TestFilter(t *testing.T) {
	b := NewBus()
	var got []any
	_, err := b.Subscribe("n", func(_ context.Context, ev Event) error {
		got = append(got, ev.Payload)
		return nil
	}, WithFilter(func(ev Event) bool { return ev.Payload.(int)%2 == 0 }))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Publish(context.Background(), Event{Topic: "n", Payload: i}))
	}
	assert.Equal(t, []any{0, 2}, got)
}

func TestHandlerFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBus(WithLogger(zap.New(core)))
	boom := errors.New("boom")
	reached := false

	_, err := b.Subscribe("a", func(context.Context, Event) error { return boom }, WithPriority(PriorityHigh))
	require.NoError(t, err)
	_, err = b.Subscribe("a", func(context.Context, Event) error { panic("bad handler") })
	require.NoError(t, err)
	_, err = b.Subscribe("a", func(context.Context, Event) error { reached = true; return nil }, WithPriority(PriorityLow))
	require.NoError(t, err)

	err = b.Publish(context.Background(), Event{Topic: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, Topic("a"), herr.Topic)
	assert.True(t, reached)

	stats := b.Stats()
	assert.Equal(t, uint64(1), stats.Errors)
	assert.Equal(t, uint64(1), stats.Panics)
	assert.Equal(t, uint64(1), stats.Delivered)
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestHandlerMaySubscribe(t *testing.T) {
	b := NewBus()
	added := 0
	_, err := b.Subscribe("a", func(context.Context, Event) error {
		_, err := b.Subscribe("a", func(context.Context, Event) error { added++; return nil })
		return err
	}, WithOnce())
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), Event{Topic: "a"}))
	assert.Equal(t, 0, added)
	require.NoError(t, b.Publish(context.Background(), Event{Topic: "a"}))
	assert.Equal(t, 1, added)
}
