package subscription

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/api/internal/model"
	"github.com/UnAfraid/wg-dash/pkg/peer"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

type SubscriptionResolver struct {
	peerService peer.Service
	pingPeriod  time.Duration
	upgrader    websocket.Upgrader
}

func NewSubscriptionResolver(peerService peer.Service, pingPeriod time.Duration, checkOrigin func(r *http.Request) bool) *SubscriptionResolver {
	return &SubscriptionResolver{
		peerService: peerService,
		pingPeriod:  pingPeriod,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin,
		},
	}
}

// PeerChanged streams peer change events as JSON text frames until the client
// goes away.
func (r *SubscriptionResolver) PeerChanged(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logrus.WithError(err).Debug("failed to upgrade peer events connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	events, err := r.peerService.Subscribe(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to subscribe to peer events")
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait),
		)
		return
	}

	go r.readLoop(conn, cancel)

	ticker := time.NewTicker(r.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(model.ToPeerChangedEvent(event)); err != nil {
				logrus.WithError(err).Debug("failed to write peer event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logrus.WithError(err).Debug("failed to ping peer events client")
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames get processed, and
// cancels the stream once the connection fails.
func (r *SubscriptionResolver) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	pongWait := 2 * r.pingPeriod
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
