package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/subscription"
)

var (
	subscriptionPath = path.Join("node", "Peer")
)

// Service persists peers. Mutations do not publish events on their own, the
// caller invokes Notify once the surrounding transaction has been committed.
type Service interface {
	FindPeer(ctx context.Context, options *FindOneOptions) (*Peer, error)
	FindPeers(ctx context.Context, options *FindOptions) ([]*Peer, error)
	CreatePeer(ctx context.Context, options *CreateOptions, userId string) (*Peer, error)
	DeletePeer(ctx context.Context, publicKey string, userId string) (*Peer, error)
	Notify(action string, peer *Peer)
	Subscribe(ctx context.Context) (<-chan *ChangedEvent, error)
	HasSubscribers() bool
}

type service struct {
	peerRepository   Repository
	addressAllocator *AddressAllocator
	subscription     subscription.Subscription
	maxDaysValid     int
	createLock       sync.Mutex
	now              func() time.Time
}

func NewService(
	peerRepository Repository,
	addressAllocator *AddressAllocator,
	subscription subscription.Subscription,
	maxDaysValid int,
) Service {
	return &service{
		peerRepository:   peerRepository,
		addressAllocator: addressAllocator,
		subscription:     subscription,
		maxDaysValid:     maxDaysValid,
		now:              time.Now,
	}
}

func (s *service) FindPeer(ctx context.Context, options *FindOneOptions) (*Peer, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return s.peerRepository.FindOne(ctx, options)
}

func (s *service) FindPeers(ctx context.Context, options *FindOptions) ([]*Peer, error) {
	if options == nil {
		options = &FindOptions{}
	}
	return s.peerRepository.FindAll(ctx, options)
}

func (s *service) CreatePeer(ctx context.Context, options *CreateOptions, userId string) (*Peer, error) {
	if err := options.Validate(s.maxDaysValid); err != nil {
		return nil, err
	}

	s.createLock.Lock()
	defer s.createLock.Unlock()

	existingPeers, err := s.peerRepository.FindAll(ctx, &FindOptions{})
	if err != nil {
		return nil, err
	}

	ipv4Address, ipv6Address, err := s.addressAllocator.Allocate(existingPeers)
	if err != nil {
		return nil, err
	}

	privateKey, publicKey, err := generateKeyPair()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	p := &Peer{
		PublicKey:    publicKey,
		PrivateKey:   privateKey,
		IPv4Address:  ipv4Address,
		IPv6Address:  ipv6Address,
		CreateUserId: userId,
		CreatedAt:    now,
		ExpiresAt:    now.AddDate(0, 0, options.DaysValid),
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return s.peerRepository.Create(ctx, p)
}

func (s *service) DeletePeer(ctx context.Context, publicKey string, userId string) (*Peer, error) {
	if err := (&PublicKeyOption{PublicKey: publicKey}).Validate(); err != nil {
		return nil, err
	}

	deletedPeer, err := s.peerRepository.Delete(ctx, publicKey)
	if err != nil {
		return nil, err
	}

	logrus.
		WithField("publicKey", publicKey).
		WithField("userId", userId).
		Info("peer deleted")
	return deletedPeer, nil
}

func (s *service) Notify(action string, peer *Peer) {
	bytes, err := json.Marshal(ChangedEvent{Action: action, Peer: peer})
	if err != nil {
		logrus.WithError(err).Warn("failed to encode peer changed event")
		return
	}

	if err := s.subscription.Notify(bytes, path.Join(subscriptionPath, action)); err != nil {
		logrus.
			WithError(err).
			WithField("action", action).
			WithField("publicKey", peer.PublicKey).
			Warn("failed to notify peer changed event")
	}
}

func (s *service) Subscribe(ctx context.Context) (<-chan *ChangedEvent, error) {
	bytesChannel, err := s.subscription.Subscribe(ctx, path.Join(subscriptionPath, "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to peer changes: %w", err)
	}

	observerChan := make(chan *ChangedEvent)
	go func() {
		defer close(observerChan)

		for bytes := range bytesChannel {
			var changedEvent *ChangedEvent
			if err := json.Unmarshal(bytes, &changedEvent); err != nil {
				logrus.WithError(err).Warn("failed to decode peer changed event")
				continue
			}

			select {
			case observerChan <- changedEvent:
			case <-ctx.Done():
				return
			}
		}
	}()

	return observerChan, nil
}

func (s *service) HasSubscribers() bool {
	return s.subscription.HasSubscribers(path.Join(subscriptionPath, "*"))
}
