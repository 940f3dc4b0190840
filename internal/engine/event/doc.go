// Package event provides a synchronous publish/subscribe bus for engine
// notifications.
//
// Events are addressed by hierarchical dot-separated topics such as
// "document.changed". Subscriptions use patterns in which "*" matches
// exactly one segment and "**" matches zero or more:
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("history.*", func(ctx context.Context, ev event.Event) error {
//		fmt.Println(ev.Topic)
//		return nil
//	})
//	defer bus.Unsubscribe(sub)
//
// Handlers run in the publisher's goroutine in priority order. A handler
// that panics is logged and skipped; the remaining handlers still run.
package event
