package manage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/dbx"
	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/wgconf"
	"github.com/UnAfraid/wg-dash/pkg/wireguard"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

// Service keeps the peer store, the interface configuration file and the live
// interface in step with each other.
type Service interface {
	FindPeers(ctx context.Context, options *peer.FindOptions) ([]*peer.Peer, error)
	CreatePeer(ctx context.Context, options *peer.CreateOptions, userId string) (*peer.Peer, error)
	DeletePeer(ctx context.Context, publicKey string, userId string) (bool, error)
	PeerStats(ctx context.Context) ([]*driver.Peer, error)
	ServerConfig(ctx context.Context) (*ServerConfig, error)
	ExpirePeers(ctx context.Context, now time.Time) (int, error)
	Reconcile(ctx context.Context) error
}

type service struct {
	transactionScoper dbx.TransactionScoper
	peerService       peer.Service
	wireguardService  wireguard.Service
	configFile        *wgconf.File
	serverOptions     ServerOptions
}

func NewService(
	transactionScoper dbx.TransactionScoper,
	peerService peer.Service,
	wireguardService wireguard.Service,
	configFile *wgconf.File,
	serverOptions ServerOptions,
) Service {
	return &service{
		transactionScoper: transactionScoper,
		peerService:       peerService,
		wireguardService:  wireguardService,
		configFile:        configFile,
		serverOptions:     serverOptions,
	}
}

func (s *service) FindPeers(ctx context.Context, options *peer.FindOptions) ([]*peer.Peer, error) {
	return s.peerService.FindPeers(ctx, options)
}

func (s *service) CreatePeer(ctx context.Context, options *peer.CreateOptions, userId string) (*peer.Peer, error) {
	createdPeer, err := dbx.InTransactionScopeWithResult(ctx, s.transactionScoper, func(ctx context.Context) (*peer.Peer, error) {
		p, err := s.peerService.CreatePeer(ctx, options, userId)
		if err != nil {
			return nil, err
		}

		if err := s.configFile.AppendPeer(p.PublicKey, p.AllowedIPs()); err != nil {
			return nil, fmt.Errorf("failed to write peer to wireguard config: %w", err)
		}

		if err := s.addDevicePeer(ctx, p); err != nil {
			if _, removeErr := s.configFile.RemovePeer(p.PublicKey); removeErr != nil {
				logrus.
					WithError(removeErr).
					WithField("publicKey", p.PublicKey).
					Error("failed to roll back wireguard config")
			}
			return nil, err
		}

		return p, nil
	})
	if err != nil {
		return nil, err
	}

	logrus.
		WithField("publicKey", createdPeer.PublicKey).
		WithField("ipv4", createdPeer.IPv4Address).
		WithField("expiresAt", createdPeer.ExpiresAt).
		Info("peer created")

	s.peerService.Notify(peer.ChangedActionCreated, createdPeer)
	return createdPeer, nil
}

func (s *service) DeletePeer(ctx context.Context, publicKey string, userId string) (bool, error) {
	deletedPeer, err := s.removePeer(ctx, publicKey, userId)
	if err != nil {
		if errors.Is(err, peer.ErrPeerNotFound) {
			return false, nil
		}
		return false, err
	}

	logrus.WithField("publicKey", deletedPeer.PublicKey).Info("peer deleted")

	s.peerService.Notify(peer.ChangedActionDeleted, deletedPeer)
	return true, nil
}

func (s *service) PeerStats(ctx context.Context) ([]*driver.Peer, error) {
	device, err := s.wireguardService.Device(ctx)
	if err != nil {
		return nil, err
	}
	if device.Peers == nil {
		return []*driver.Peer{}, nil
	}
	return device.Peers, nil
}

func (s *service) ServerConfig(ctx context.Context) (*ServerConfig, error) {
	publicKey, err := s.serverPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServerConfigUnavailable, err)
	}

	return &ServerConfig{
		PublicKey:           publicKey,
		Endpoint:            s.serverOptions.Endpoint,
		AllowedIPs:          s.serverOptions.AllowedIPs,
		DNSServer:           s.serverOptions.DNSServer,
		PersistentKeepalive: s.serverOptions.PersistentKeepalive,
	}, nil
}

// ExpirePeers removes every peer whose expiry lies before now. Failures do not
// stop the sweep, they are collected and returned together.
func (s *service) ExpirePeers(ctx context.Context, now time.Time) (int, error) {
	expiredPeers, err := s.peerService.FindPeers(ctx, &peer.FindOptions{
		ExpiredBefore: &now,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to find expired peers: %w", err)
	}

	var (
		count  int
		result *multierror.Error
	)
	for _, p := range expiredPeers {
		expiredPeer, err := s.removePeer(ctx, p.PublicKey, "")
		if err != nil {
			if errors.Is(err, peer.ErrPeerNotFound) {
				continue
			}
			result = multierror.Append(result, fmt.Errorf("failed to expire peer %s: %w", p.PublicKey, err))
			continue
		}

		count++
		logrus.
			WithField("publicKey", expiredPeer.PublicKey).
			WithField("expiresAt", expiredPeer.ExpiresAt).
			Info("peer expired")
		s.peerService.Notify(peer.ChangedActionExpired, expiredPeer)
	}

	return count, result.ErrorOrNil()
}

// Reconcile pushes stored peers that are missing from the configuration file
// or from the live interface. Peers unknown to the store are left alone.
func (s *service) Reconcile(ctx context.Context) error {
	started := time.Now()

	peers, err := s.peerService.FindPeers(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to find peers: %w", err)
	}

	filePublicKeys, err := s.configFile.PeerPublicKeys()
	if err != nil {
		return fmt.Errorf("failed to read wireguard config: %w", err)
	}
	inFile := make(map[string]struct{}, len(filePublicKeys))
	for _, publicKey := range filePublicKeys {
		inFile[publicKey] = struct{}{}
	}

	var (
		result       *multierror.Error
		addedToFile  int
		addedToIface int
	)
	for _, p := range peers {
		if _, ok := inFile[p.PublicKey]; ok {
			continue
		}
		if err := s.configFile.AppendPeer(p.PublicKey, p.AllowedIPs()); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to write peer %s to wireguard config: %w", p.PublicKey, err))
			continue
		}
		addedToFile++
	}

	device, err := s.wireguardService.Device(ctx)
	if err != nil {
		if !errors.Is(err, driver.ErrDeviceNotFound) {
			result = multierror.Append(result, fmt.Errorf("failed to read device: %w", err))
		} else {
			logrus.
				WithField("interface", s.wireguardService.InterfaceName()).
				Warn("wireguard device not found, skipping live reconciliation")
		}
	} else {
		for _, p := range peers {
			if device.FindPeer(p.PublicKey) != nil {
				continue
			}
			if err := s.addDevicePeer(ctx, p); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			addedToIface++
		}
	}

	logrus.
		WithField("duration", time.Since(started).String()).
		WithField("peers", len(peers)).
		WithField("addedToConfig", addedToFile).
		WithField("addedToInterface", addedToIface).
		Info("peers reconciled")

	return result.ErrorOrNil()
}

// removePeer deletes the stored peer and pulls it from the live interface and
// the configuration file. The store deletion is rolled back when either of the
// other two fails.
func (s *service) removePeer(ctx context.Context, publicKey string, userId string) (*peer.Peer, error) {
	return dbx.InTransactionScopeWithResult(ctx, s.transactionScoper, func(ctx context.Context) (*peer.Peer, error) {
		p, err := s.peerService.DeletePeer(ctx, publicKey, userId)
		if err != nil {
			return nil, err
		}

		if err := s.wireguardService.RemovePeer(ctx, publicKey); err != nil {
			if !errors.Is(err, driver.ErrDeviceNotFound) {
				return nil, fmt.Errorf("failed to remove peer from device: %w", err)
			}
			logrus.
				WithField("interface", s.wireguardService.InterfaceName()).
				WithField("publicKey", publicKey).
				Warn("wireguard device not found, peer removed from config only")
		}

		if _, err := s.configFile.RemovePeer(publicKey); err != nil {
			if addErr := s.addDevicePeer(ctx, p); addErr != nil {
				logrus.
					WithError(addErr).
					WithField("publicKey", publicKey).
					Error("failed to restore peer on device")
			}
			return nil, fmt.Errorf("failed to remove peer from wireguard config: %w", err)
		}

		return p, nil
	})
}

func (s *service) addDevicePeer(ctx context.Context, p *peer.Peer) error {
	err := s.wireguardService.AddPeer(ctx, &driver.PeerOptions{
		PublicKey:  p.PublicKey,
		AllowedIPs: p.AllowedIPs(),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrDeviceNotFound) {
		logrus.
			WithField("interface", s.wireguardService.InterfaceName()).
			WithField("publicKey", p.PublicKey).
			Warn("wireguard device not found, peer written to config only")
		return nil
	}
	return fmt.Errorf("failed to add peer %s to device: %w", p.PublicKey, err)
}

func (s *service) serverPublicKey(ctx context.Context) (string, error) {
	device, deviceErr := s.wireguardService.Device(ctx)
	if deviceErr == nil && device.PublicKey != "" {
		return device.PublicKey, nil
	}

	privateKey, keyErr := wgconf.ReadPrivateKey(s.serverOptions.PrivateKeyPath)
	if keyErr == nil {
		return privateKey.PublicKey().String(), nil
	}

	var result *multierror.Error
	if deviceErr != nil {
		result = multierror.Append(result, deviceErr)
	}
	result = multierror.Append(result, keyErr)
	return "", result.ErrorOrNil()
}
