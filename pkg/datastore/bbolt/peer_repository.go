package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/twelvedata/searchindex"
	"go.etcd.io/bbolt"

	"github.com/UnAfraid/wg-dash/pkg/internal/adapt"
	"github.com/UnAfraid/wg-dash/pkg/peer"
)

const (
	peerBucket = "peer"
)

type peerRepository struct {
	db *bbolt.DB
}

func NewPeerRepository(db *bbolt.DB) peer.Repository {
	return &peerRepository{
		db: db,
	}
}

func (r *peerRepository) FindOne(ctx context.Context, options *peer.FindOneOptions) (*peer.Peer, error) {
	return dbView(ctx, r.db, peerBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) (*peer.Peer, error) {
		if publicKeyOption := options.PublicKeyOption; publicKeyOption != nil {
			jsonState := bucket.Get([]byte(publicKeyOption.PublicKey))
			if jsonState == nil {
				return nil, nil
			}
			return unmarshalPeer(jsonState)
		} else if ipv4AddressOption := options.IPv4AddressOption; ipv4AddressOption != nil {
			c := bucket.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				p, err := unmarshalPeer(v)
				if err != nil {
					return nil, err
				}
				if p.IPv4Address == ipv4AddressOption.IPv4Address {
					return p, nil
				}
			}
		}

		return nil, nil
	})
}

func (r *peerRepository) FindAll(ctx context.Context, options *peer.FindOptions) ([]*peer.Peer, error) {
	return dbView(ctx, r.db, peerBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) ([]*peer.Peer, error) {
		var peers []*peer.Peer
		var searchList searchindex.SearchList
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			p, err := unmarshalPeer(v)
			if err != nil {
				return nil, err
			}

			if len(options.PublicKeys) != 0 && !slices.Contains(options.PublicKeys, p.PublicKey) {
				continue
			}

			if options.ExpiredBefore != nil && !p.Expired(*options.ExpiredBefore) {
				continue
			}

			if options.CreateUserId != nil && p.CreateUserId != *options.CreateUserId {
				continue
			}

			if len(options.Query) != 0 {
				searchList = append(searchList, &searchindex.SearchItem{
					Key:  strings.ToLower(p.PublicKey),
					Data: p,
				})
				searchList = append(searchList, &searchindex.SearchItem{
					Key:  p.IPv4Address,
					Data: p,
				})
				continue
			}

			peers = append(peers, p)
		}

		if len(options.Query) != 0 && len(searchList) != 0 {
			searchIndex := searchindex.NewSearchIndex(searchList, len(searchList), nil, nil, false, nil)
			matches := searchIndex.Search(searchindex.SearchParams{
				Text:       strings.ToLower(options.Query),
				OutputSize: len(searchList),
				Matching:   searchindex.Beginning,
			})
			for _, match := range matches {
				peers = append(peers, match.(*peer.Peer))
			}
			peers = adapt.UniqueBy(peers, func(p *peer.Peer) string { return p.PublicKey })
		}

		sortPeers(peers)
		return peers, nil
	})
}

func (r *peerRepository) Create(ctx context.Context, p *peer.Peer) (*peer.Peer, error) {
	return dbUpdate(ctx, r.db, peerBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) (*peer.Peer, error) {
		publicKey := []byte(p.PublicKey)
		if bucket.Get(publicKey) != nil {
			return nil, peer.ErrPublicKeyAlreadyExists
		}

		jsonState, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal peer: %w", err)
		}

		return p, bucket.Put(publicKey, jsonState)
	})
}

func (r *peerRepository) Delete(ctx context.Context, publicKey string) (*peer.Peer, error) {
	return dbUpdate(ctx, r.db, peerBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) (*peer.Peer, error) {
		key := []byte(publicKey)
		jsonState := bucket.Get(key)
		if jsonState == nil {
			return nil, peer.ErrPeerNotFound
		}

		deletedPeer, err := unmarshalPeer(jsonState)
		if err != nil {
			return nil, err
		}

		return deletedPeer, bucket.Delete(key)
	})
}

func unmarshalPeer(jsonState []byte) (*peer.Peer, error) {
	var p *peer.Peer
	if err := json.Unmarshal(jsonState, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal peer: %w", err)
	}
	return p, nil
}

// sortPeers orders peers by tunnel address, the order they were handed out.
func sortPeers(peers []*peer.Peer) {
	slices.SortStableFunc(peers, func(a, b *peer.Peer) int {
		addrA, errA := netip.ParseAddr(a.IPv4Address)
		addrB, errB := netip.ParseAddr(b.IPv4Address)
		if errA != nil || errB != nil {
			return strings.Compare(a.IPv4Address, b.IPv4Address)
		}
		return addrA.Compare(addrB)
	})
}
