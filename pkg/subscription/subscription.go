package subscription

import (
	"context"
)

// Subscription fans raw event payloads out to every observer whose channel
// pattern matches the published channel.
type Subscription interface {
	Notify(bytes []byte, channel string) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	HasSubscribers(channel string) bool
}
