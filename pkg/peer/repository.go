package peer

import (
	"context"
)

type Repository interface {
	FindOne(ctx context.Context, options *FindOneOptions) (*Peer, error)
	FindAll(ctx context.Context, options *FindOptions) ([]*Peer, error)
	Create(ctx context.Context, peer *Peer) (*Peer, error)
	Delete(ctx context.Context, publicKey string) (*Peer, error)
}
