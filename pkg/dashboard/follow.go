package dashboard

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

const DefaultPeerPollInterval = 10 * time.Second

type EventSubscriber interface {
	SubscribePeerEvents(ctx context.Context) (<-chan *client.PeerChangedEvent, error)
}

type retryDelays struct {
	min time.Duration
	max time.Duration
}

var defaultRetryDelays = retryDelays{
	min: time.Second,
	max: time.Minute,
}

// Follow keeps the peer table current until ctx is done. While the event
// stream is up every event reloads the table. Whenever it cannot be opened or
// ends, the table is reloaded every peer poll interval and the stream is
// retried with exponential backoff.
func (d *Dashboard) Follow(ctx context.Context, subscriber EventSubscriber, onEvent func(event *client.PeerChangedEvent)) {
	retryDelay := d.retryDelays.min
	for {
		events, err := subscriber.SubscribePeerEvents(ctx)
		if err == nil {
			retryDelay = d.retryDelays.min
			d.Watch(ctx, events, onEvent)
			if ctx.Err() != nil {
				return
			}
			logrus.Warn("dashboard: peer events stream ended, polling peers")
		} else {
			if ctx.Err() != nil {
				return
			}
			logrus.
				WithError(err).
				WithField("retryIn", retryDelay).
				Warn("dashboard: peer events unavailable, polling peers")
		}

		if !d.pollPeers(ctx, retryDelay) {
			return
		}

		retryDelay *= 2
		if retryDelay > d.retryDelays.max {
			retryDelay = d.retryDelays.max
		}
	}
}

// pollPeers reloads the peer table right away and then every peer poll
// interval for the given duration. It reports false once ctx is done.
func (d *Dashboard) pollPeers(ctx context.Context, duration time.Duration) bool {
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	ticker := time.NewTicker(d.peerPollInterval)
	defer ticker.Stop()

	d.reloadPeers(ctx)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return true
		case <-ticker.C:
			d.reloadPeers(ctx)
		}
	}
}

func (d *Dashboard) reloadPeers(ctx context.Context) {
	if err := d.peerTable.Reload(ctx); err != nil && ctx.Err() == nil {
		logrus.WithError(err).Warn("dashboard: failed to reload peers")
	}
}
