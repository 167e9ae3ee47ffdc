//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/UnAfraid/wg-dash/pkg/internal/adapt"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

func Register() {
	driver.Register("linux", func(_ context.Context) (driver.Backend, error) {
		return NewLinuxBackend()
	}, true)
}

type linuxBackend struct {
	client *wgctrl.Client
}

func NewLinuxBackend() (driver.Backend, error) {
	client, err := wgctrl.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize linux backend: %w", err)
	}

	return &linuxBackend{
		client: client,
	}, nil
}

func (lb *linuxBackend) Device(_ context.Context, name string) (*driver.Device, error) {
	device, err := lb.client.Device(name)
	if err != nil {
		return nil, classifyError(name, err)
	}
	return wgDeviceToDriverDevice(device), nil
}

func (lb *linuxBackend) AddPeer(_ context.Context, name string, options *driver.PeerOptions) error {
	if err := options.Validate(); err != nil {
		return err
	}

	peerConfig, err := peerOptionsToPeerConfig(options)
	if err != nil {
		return err
	}

	if err := lb.client.ConfigureDevice(name, wgtypes.Config{
		Peers: []wgtypes.PeerConfig{peerConfig},
	}); err != nil {
		return classifyError(name, err)
	}

	if err := addRoutes(name, peerConfig.AllowedIPs); err != nil {
		logrus.
			WithError(err).
			WithField("name", name).
			WithField("publicKey", options.PublicKey).
			Warn("failed to add peer routes")
	}

	return nil
}

func (lb *linuxBackend) RemovePeer(_ context.Context, name string, publicKey string) error {
	key, err := wgtypes.ParseKey(publicKey)
	if err != nil {
		return fmt.Errorf("invalid peer public key: %w", err)
	}

	device, err := lb.client.Device(name)
	if err != nil {
		return classifyError(name, err)
	}

	var allowedIPs []net.IPNet
	for _, p := range device.Peers {
		if p.PublicKey == key {
			allowedIPs = p.AllowedIPs
			break
		}
	}

	if err := lb.client.ConfigureDevice(name, wgtypes.Config{
		Peers: []wgtypes.PeerConfig{
			{
				PublicKey: key,
				Remove:    true,
			},
		},
	}); err != nil {
		return classifyError(name, err)
	}

	if err := deleteRoutes(name, allowedIPs); err != nil {
		logrus.
			WithError(err).
			WithField("name", name).
			WithField("publicKey", publicKey).
			Warn("failed to delete peer routes")
	}

	return nil
}

func (lb *linuxBackend) Close(_ context.Context) error {
	return lb.client.Close()
}

func wgDeviceToDriverDevice(device *wgtypes.Device) *driver.Device {
	return &driver.Device{
		Name:       device.Name,
		PublicKey:  device.PublicKey.String(),
		ListenPort: device.ListenPort,
		Peers: adapt.Array(device.Peers, func(peer wgtypes.Peer) *driver.Peer {
			var endpoint string
			if peer.Endpoint != nil {
				endpoint = peer.Endpoint.String()
			}
			return &driver.Peer{
				PublicKey: peer.PublicKey.String(),
				Endpoint:  endpoint,
				AllowedIPs: adapt.Array(peer.AllowedIPs, func(ipNet net.IPNet) string {
					return ipNet.String()
				}),
				PersistentKeepalive: peer.PersistentKeepaliveInterval,
				Stats: driver.PeerStats{
					LastHandshakeTime: peer.LastHandshakeTime,
					ReceiveBytes:      peer.ReceiveBytes,
					TransmitBytes:     peer.TransmitBytes,
				},
			}
		}),
	}
}

func peerOptionsToPeerConfig(options *driver.PeerOptions) (wgtypes.PeerConfig, error) {
	publicKey, err := wgtypes.ParseKey(options.PublicKey)
	if err != nil {
		return wgtypes.PeerConfig{}, fmt.Errorf("invalid peer: %s public key: %w", options.PublicKey, err)
	}

	allowedIPs := make([]net.IPNet, len(options.AllowedIPs))
	for i, cidr := range options.AllowedIPs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return wgtypes.PeerConfig{}, err
		}
		allowedIPs[i] = *ipNet
	}

	var persistentKeepaliveInterval *time.Duration
	if options.PersistentKeepalive != 0 {
		persistentKeepaliveInterval = adapt.ToPointer(time.Duration(options.PersistentKeepalive) * time.Second)
	}

	return wgtypes.PeerConfig{
		PublicKey:                   publicKey,
		PersistentKeepaliveInterval: persistentKeepaliveInterval,
		ReplaceAllowedIPs:           true,
		AllowedIPs:                  allowedIPs,
	}, nil
}

// classifyError maps wgctrl failures onto the driver errors the service
// knows how to react to.
func classifyError(name string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", driver.ErrDeviceNotFound, name)
	case errors.Is(err, net.ErrClosed), errors.Is(err, syscall.EBADF), errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %s", driver.ErrConnectionStale, err)
	default:
		return fmt.Errorf("failed to configure device %s: %w", name, err)
	}
}

func findInterface(name string) (netlink.Link, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var linkNotFoundErr netlink.LinkNotFoundError
		if os.IsNotExist(err) || errors.As(err, &linkNotFoundErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find link by name: %w", err)
	}
	return link, nil
}

func addRoutes(name string, allowedIPs []net.IPNet) error {
	link, err := findInterface(name)
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("interface not found: %s", name)
	}

	for i := range allowedIPs {
		route := peerRoute(link, &allowedIPs[i])
		if err := netlink.RouteReplace(route); err != nil {
			return fmt.Errorf("failed to add route for %s - %w", route.Dst.String(), err)
		}

		logrus.
			WithField("name", name).
			WithField("route", route.Dst.String()).
			Debug("route added")
	}
	return nil
}

func deleteRoutes(name string, allowedIPs []net.IPNet) error {
	link, err := findInterface(name)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}

	for i := range allowedIPs {
		route := peerRoute(link, &allowedIPs[i])
		if err := netlink.RouteDel(route); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("failed to delete route for %s - %w", route.Dst.String(), err)
		}

		logrus.
			WithField("name", name).
			WithField("route", route.Dst.String()).
			Debug("route deleted")
	}
	return nil
}

func peerRoute(link netlink.Link, dst *net.IPNet) *netlink.Route {
	return &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Scope:     netlink.SCOPE_LINK,
		Dst:       dst,
		Protocol:  netlink.RouteProtocol(3),
		Type:      1,
	}
}
