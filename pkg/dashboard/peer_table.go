package dashboard

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

type PeerClient interface {
	ListPeers(ctx context.Context, query string) ([]*client.Peer, error)
	CreatePeer(ctx context.Context, daysValid int) (*client.Peer, error)
	DeletePeer(ctx context.Context, publicKey string) (bool, error)
}

// PeerTable mirrors the peers last listed by the server.
type PeerTable struct {
	client PeerClient
	query  string

	mu    sync.RWMutex
	order []string
	peers map[string]*client.Peer
}

func NewPeerTable(peerClient PeerClient, query string) *PeerTable {
	return &PeerTable{
		client: peerClient,
		query:  query,
		peers:  make(map[string]*client.Peer),
	}
}

func (t *PeerTable) Reload(ctx context.Context) error {
	peers, err := t.client.ListPeers(ctx, t.query)
	if err != nil {
		return err
	}

	order := make([]string, 0, len(peers))
	byKey := make(map[string]*client.Peer, len(peers))
	for _, p := range peers {
		if _, ok := byKey[p.PublicKey]; !ok {
			order = append(order, p.PublicKey)
		}
		byKey[p.PublicKey] = p
	}

	t.mu.Lock()
	t.order = order
	t.peers = byKey
	t.mu.Unlock()
	return nil
}

// Peers returns the peers in the order the server listed them.
func (t *PeerTable) Peers() []*client.Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	peers := make([]*client.Peer, 0, len(t.order))
	for _, publicKey := range t.order {
		peers = append(peers, t.peers[publicKey])
	}
	return peers
}

func (t *PeerTable) Get(publicKey string) (*client.Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[publicKey]
	return p, ok
}

func (t *PeerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

func (t *PeerTable) Create(ctx context.Context, daysValid int) (*client.Peer, error) {
	p, err := t.client.CreatePeer(ctx, daysValid)
	if err != nil {
		return nil, err
	}
	if err := t.Reload(ctx); err != nil {
		return p, err
	}
	return p, nil
}

func (t *PeerTable) Delete(ctx context.Context, publicKey string) (bool, error) {
	deleted, err := t.client.DeletePeer(ctx, publicKey)
	if err != nil {
		return false, err
	}
	if err := t.Reload(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Watch reloads the table for every received event until events is closed or
// ctx is done. onEvent, when set, runs after each reload.
func (t *PeerTable) Watch(ctx context.Context, events <-chan *client.PeerChangedEvent, onEvent func(event *client.PeerChangedEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			if err := t.Reload(ctx); err != nil {
				logrus.
					WithError(err).
					WithField("action", event.Action).
					Warn("dashboard: failed to reload peers")
			}

			if onEvent != nil {
				onEvent(event)
			}
		}
	}
}
