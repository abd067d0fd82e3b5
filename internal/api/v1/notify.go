package v1

import (
	"context"

	"github.com/apexhq/trackline/internal/changefeed"
)

// notify publishes a change event after a persisted mutation. Publish
// failures are logged, never surfaced to the client: the write already
// succeeded and clients recover on their next fetch.
func notify(ctx context.Context, pub changefeed.Publisher, ev changefeed.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		changefeed.LogPublishFailure(ev, err)
	}
}
