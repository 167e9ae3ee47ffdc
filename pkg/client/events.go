package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const peerEventsPath = "/api/peers/events"

// SubscribePeerEvents opens the peer events stream. The returned channel is
// closed once ctx is done or the server drops the connection.
func (c *Client) SubscribePeerEvents(ctx context.Context) (<-chan *PeerChangedEvent, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := c.dialEvents(ctx, token)
	if errors.Is(err, errRetryWithLogin) {
		if _, err := c.Login(ctx, c.username, c.password); err != nil {
			return nil, err
		}
		if token, err = c.tokenStore.Token(); err != nil {
			return nil, err
		}
		conn, err = c.dialEvents(ctx, token)
	}
	if errors.Is(err, errRetryWithLogin) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	events := make(chan *PeerChangedEvent)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		defer conn.Close()

		for {
			var event PeerChangedEvent
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logrus.WithError(err).Debug("peer events stream closed")
				}
				return
			}

			select {
			case events <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

var errRetryWithLogin = fmt.Errorf("%w: token rejected", ErrUnauthorized)

func (c *Client) dialEvents(ctx context.Context, token string) (*websocket.Conn, error) {
	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path += peerEventsPath

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil && isAuthFailure(resp.StatusCode) {
			if !c.hasCredentials() {
				if clearErr := c.tokenStore.Clear(); clearErr != nil {
					logrus.WithError(clearErr).Warn("failed to clear rejected token")
				}
				return nil, ErrUnauthorized
			}
			return nil, errRetryWithLogin
		}
		return nil, fmt.Errorf("failed to connect to peer events: %w", err)
	}
	return conn, nil
}
