package driver

import "context"

// Backend talks to the kernel (or userspace) wireguard implementation that
// owns the server interface.
type Backend interface {
	Device(ctx context.Context, name string) (*Device, error)
	AddPeer(ctx context.Context, name string, options *PeerOptions) error
	RemovePeer(ctx context.Context, name string, publicKey string) error
	Close(ctx context.Context) error
}
