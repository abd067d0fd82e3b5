package changefeed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Publisher is what mutation handlers call, exactly once per accepted and
// persisted mutation, after the persist. Validation and authorization
// failures never reach the feed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Transport is the underlying broadcast medium (redis pub/sub in
// production). Subscribe delivers raw payloads until ctx is done.
type Transport interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) (<-chan []byte, func(), error)
}

// Feed ties the transport to the local session registry: events published on
// any server instance reach every session connected to this one.
type Feed struct {
	transport Transport
	registry  *Registry
}

func NewFeed(transport Transport, registry *Registry) *Feed {
	return &Feed{transport: transport, registry: registry}
}

func (f *Feed) Registry() *Registry { return f.registry }

// Publish encodes and hands the event to the transport.
func (f *Feed) Publish(ctx context.Context, ev Event) error {
	payload, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("changefeed.Feed.Publish: %w", err)
	}
	if err := f.transport.Publish(ctx, payload); err != nil {
		return fmt.Errorf("changefeed.Feed.Publish: %w", err)
	}
	return nil
}

// Run pumps transport deliveries into the session registry until ctx is
// done. Delivery failures are dropped silently; the feed is advisory.
func (f *Feed) Run(ctx context.Context) error {
	messages, cleanup, err := f.transport.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("changefeed.Feed.Run: subscribe: %w", err)
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			f.registry.Broadcast(msg)
		}
	}
}

// LogPublishFailure records a failed publish without failing the mutation:
// the write already committed, and clients will converge on their next
// fetch.
func LogPublishFailure(ev Event, err error) {
	log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("changefeed: publish failed")
}
